package camera

import (
	"context"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// Open opens the device at opts.DevicePath and starts a session on it.
func Open(ctx context.Context, opts Options) (*Session, error) {
	dev, err := v4l2.Open(opts.DevicePath)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, dev, opts)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return s, nil
}

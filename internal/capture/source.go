package capture

import (
	"errors"
	"time"
)

// ErrNoFrame is returned by Source.Next when the wait expired or the
// driver handed back an empty buffer. The loop counts it and carries on.
var ErrNoFrame = errors.New("capture: no frame available")

// Source delivers raw frames from a streaming device.
type Source interface {
	Start() error
	// Next blocks for at most timeout. The returned slice belongs to the
	// caller.
	Next(timeout time.Duration) ([]byte, error)
	// Format reports the negotiated pixel format and geometry.
	Format() (pixelFormat uint32, width, height int)
	Close() error
}

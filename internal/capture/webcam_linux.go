package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/blackjack/webcam"
)

// WebcamConfig selects the capture format. The driver may adjust the
// geometry; Format reports what was applied.
type WebcamConfig struct {
	DevicePath  string
	PixelFormat uint32
	Width       uint32
	Height      uint32
	Buffers     uint32
}

// WebcamSource streams mmap'd buffers through github.com/blackjack/webcam.
type WebcamSource struct {
	cam         *webcam.Webcam
	pixelFormat uint32
	width       uint32
	height      uint32
}

// OpenWebcam opens cfg.DevicePath and applies the requested format.
func OpenWebcam(cfg WebcamConfig) (*WebcamSource, error) {
	cam, err := webcam.Open(cfg.DevicePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DevicePath, err)
	}
	if cfg.Buffers > 0 {
		if bufErr := cam.SetBufferCount(cfg.Buffers); bufErr != nil {
			cam.Close()
			return nil, fmt.Errorf("set buffer count: %w", bufErr)
		}
	}

	f, w, h, err := cam.SetImageFormat(webcam.PixelFormat(cfg.PixelFormat), cfg.Width, cfg.Height)
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("set image format: %w", err)
	}

	return &WebcamSource{cam: cam, pixelFormat: uint32(f), width: w, height: h}, nil
}

// Start begins streaming.
func (s *WebcamSource) Start() error {
	return s.cam.StartStreaming()
}

// Next waits for and copies out the next frame. The wait is rounded up to
// whole seconds.
func (s *WebcamSource) Next(timeout time.Duration) ([]byte, error) {
	secs := uint32((timeout + time.Second - 1) / time.Second)
	if secs == 0 {
		secs = 1
	}

	err := s.cam.WaitForFrame(secs)
	var te *webcam.Timeout
	if errors.As(err, &te) {
		return nil, ErrNoFrame
	}
	if err != nil {
		return nil, err
	}

	frame, err := s.cam.ReadFrame()
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, ErrNoFrame
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out, nil
}

// Format implements Source.
func (s *WebcamSource) Format() (uint32, int, int) {
	return s.pixelFormat, int(s.width), int(s.height)
}

// Close stops streaming and closes the device.
func (s *WebcamSource) Close() error {
	stopErr := s.cam.StopStreaming()
	return errors.Join(stopErr, s.cam.Close())
}

// Package capture runs the per-frame loop: read a raw buffer, apply the
// session's conversion policy, scale for display and publish the result.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/internal/events"
	"github.com/smazurov/mipicam/internal/logging"
	"github.com/smazurov/mipicam/internal/metrics"
)

// DefaultResizeWidth is the display width frames are scaled to.
const DefaultResizeWidth = 1280

// DefaultTimeout bounds each frame wait.
const DefaultTimeout = 5 * time.Second

// Converter applies the active conversion policy. *camera.Session
// satisfies it.
type Converter interface {
	Convert(frame *convert.Frame) *convert.Frame
	Path() string
	ID() string
}

// Options tunes Run. The zero value runs until ctx is cancelled.
type Options struct {
	// Frames stops the loop after this many converted frames.
	Frames int
	// Timeout bounds each wait for a frame. Zero means DefaultTimeout.
	Timeout time.Duration
	// ResizeWidth scales frames, keeping aspect ratio. Negative disables.
	ResizeWidth int
	// ShowFPS prints the frame count once per second to Out.
	ShowFPS bool
	Out     io.Writer

	Latest *Latest
	// SnapshotDir receives the last frame when the loop ends.
	SnapshotDir    string
	SnapshotFormat string

	Bus    *events.Bus
	Logger *slog.Logger
}

// Stats summarises a run.
type Stats struct {
	Frames   int           `json:"frames"`
	Timeouts int           `json:"timeouts"`
	Dropped  int           `json:"dropped"`
	Elapsed  time.Duration `json:"elapsed"`
	Snapshot string        `json:"snapshot,omitempty"`
}

// AvgInterval is the mean time between converted frames.
func (s Stats) AvgInterval() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Frames)
}

// AvgFPS is the mean frame rate over the run.
func (s Stats) AvgFPS() float64 {
	if s.Frames == 0 || s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Summary renders the end-of-run report.
func (s Stats) Summary() []string {
	return []string{
		fmt.Sprintf("Average time between frames: %.6f", s.AvgInterval().Seconds()),
		fmt.Sprintf("Average FPS: %.2f", s.AvgFPS()),
	}
}

// Run streams src through conv until ctx is done, opts.Frames is reached or
// src fails. Run starts src but does not close it.
func Run(ctx context.Context, conv Converter, src Source, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("capture")
	}
	logger = logger.With("device", conv.Path())
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	resize := opts.ResizeWidth
	if resize == 0 {
		resize = DefaultResizeWidth
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if err := src.Start(); err != nil {
		return Stats{}, fmt.Errorf("start streaming: %w", err)
	}
	pixelFormat, width, height := src.Format()
	logger.Info("Capture started", "pixel_format", fmt.Sprintf("0x%08X", pixelFormat),
		"width", width, "height", height)

	var (
		stats      Stats
		last       image.Image
		start      = time.Now()
		windowFrom = start
		window     int
	)

	for {
		if ctx.Err() != nil {
			break
		}
		if opts.Frames > 0 && stats.Frames >= opts.Frames {
			break
		}

		buf, err := src.Next(timeout)
		if errors.Is(err, ErrNoFrame) {
			stats.Timeouts++
			metrics.RecordTimeout(conv.Path())
			logger.Debug("No frame within timeout", "timeout", timeout)
			continue
		}
		if err != nil {
			stats.Elapsed = time.Since(start)
			publishError(opts.Bus, conv, err)
			logger.Error("Failed to grab a frame", "error", err)
			return stats, fmt.Errorf("read frame: %w", err)
		}

		frame, err := convert.FromBuffer(buf, width, height)
		if err != nil {
			stats.Dropped++
			// Padded rows or compressed payloads fail every frame.
			if stats.Dropped == 1 {
				logger.Warn("Dropping frames that do not match the negotiated size",
					"bytes", len(buf), "width", width, "height", height, "error", err)
			} else {
				logger.Debug("Dropping frame", "bytes", len(buf), "error", err)
			}
			continue
		}

		img := conv.Convert(frame).Image()
		if resize > 0 && img.Bounds().Dx() != resize {
			img = imaging.Resize(img, resize, 0, imaging.Linear)
		}
		last = img
		if opts.Latest != nil {
			opts.Latest.Store(img)
		}
		stats.Frames++
		window++

		if now := time.Now(); now.Sub(windowFrom) >= time.Second {
			fps := float64(window) / now.Sub(windowFrom).Seconds()
			metrics.SetFPS(conv.Path(), fps)
			if opts.ShowFPS {
				fmt.Fprintf(out, "fps: %d\r", window)
			}
			stats.Elapsed = now.Sub(start)
			publishStats(opts.Bus, conv, stats)
			windowFrom = now
			window = 0
		}
	}

	stats.Elapsed = time.Since(start)
	publishStats(opts.Bus, conv, stats)

	if opts.SnapshotDir != "" && last != nil {
		path, err := WriteSnapshot(opts.SnapshotDir, opts.SnapshotFormat, last, time.Now())
		if err != nil {
			logger.Warn("Failed to write snapshot", "error", err)
		} else {
			stats.Snapshot = path
			logger.Info("Snapshot written", "path", path)
		}
	}

	logger.Info("Capture stopped", "frames", stats.Frames, "timeouts", stats.Timeouts,
		"dropped", stats.Dropped, "avg_fps", stats.AvgFPS())
	return stats, nil
}

func publishStats(bus *events.Bus, conv Converter, s Stats) {
	if bus == nil {
		return
	}
	bus.Publish(events.CaptureStatsEvent{
		SessionID:  conv.ID(),
		DevicePath: conv.Path(),
		Frames:     s.Frames,
		AvgFPS:     s.AvgFPS(),
		AvgFrameMS: float64(s.AvgInterval().Microseconds()) / 1000,
		Timeouts:   s.Timeouts,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func publishError(bus *events.Bus, conv Converter, err error) {
	if bus == nil {
		return
	}
	bus.Publish(events.CaptureErrorEvent{
		SessionID:  conv.ID(),
		DevicePath: conv.Path(),
		Error:      err.Error(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

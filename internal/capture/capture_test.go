package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/internal/events"
)

type fakeSource struct {
	width, height int
	frames        [][]byte
	errs          []error
	started       bool
	startErr      error
	next          int
}

func (f *fakeSource) Start() error {
	f.started = true
	return f.startErr
}

func (f *fakeSource) Next(time.Duration) ([]byte, error) {
	i := f.next
	f.next++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.frames) {
		return f.frames[i], nil
	}
	return nil, io.ErrUnexpectedEOF
}

func (f *fakeSource) Format() (uint32, int, int) { return 0, f.width, f.height }
func (f *fakeSource) Close() error               { return nil }

type fakeConverter struct {
	policy convert.Policy
	calls  int
}

func (c *fakeConverter) Convert(frame *convert.Frame) *convert.Frame {
	c.calls++
	return convert.Convert(c.policy, frame)
}
func (c *fakeConverter) Path() string { return "/dev/video0" }
func (c *fakeConverter) ID() string   { return "session-1" }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mosaicFrames(n, w, h int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = bytes.Repeat([]byte{0x40}, w*h)
	}
	return out
}

func TestRunStopsAfterFrames(t *testing.T) {
	src := &fakeSource{width: 8, height: 4, frames: mosaicFrames(10, 8, 4)}
	conv := &fakeConverter{policy: convert.Policy{BitDepth: 8, ColorCode: convert.ColorBayerBG2BGR}}
	latest := &Latest{}

	stats, err := Run(context.Background(), conv, src, Options{
		Frames:      3,
		ResizeWidth: -1,
		Latest:      latest,
		Logger:      quiet(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !src.started {
		t.Error("source was not started")
	}
	if stats.Frames != 3 || conv.calls != 3 {
		t.Errorf("frames = %d, conversions = %d, want 3", stats.Frames, conv.calls)
	}
	img, seq, _ := latest.Load()
	if seq != 3 || img == nil {
		t.Fatalf("latest seq = %d, img = %v", seq, img)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("latest bounds = %v, want 8x4", b)
	}
}

func TestRunResizesToWidth(t *testing.T) {
	src := &fakeSource{width: 8, height: 4, frames: mosaicFrames(1, 8, 4)}
	latest := &Latest{}

	_, err := Run(context.Background(), &fakeConverter{policy: convert.AutoRGB}, src, Options{
		Frames:      1,
		ResizeWidth: 4,
		Latest:      latest,
		Logger:      quiet(),
	})
	if err != nil {
		t.Fatal(err)
	}
	img, _, _ := latest.Load()
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("resized bounds = %v, want 4x2", b)
	}
}

func TestRunCountsTimeoutsAndDrops(t *testing.T) {
	src := &fakeSource{
		width:  4,
		height: 2,
		frames: [][]byte{nil, nil, make([]byte, 5), make([]byte, 8)},
		errs:   []error{ErrNoFrame, ErrNoFrame},
	}
	stats, err := Run(context.Background(), &fakeConverter{policy: convert.AutoRGB}, src, Options{
		Frames:      1,
		ResizeWidth: -1,
		Logger:      quiet(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Timeouts != 2 || stats.Dropped != 1 || stats.Frames != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunWarnsOnceForMisshapedFrames(t *testing.T) {
	// 4x2 with rows padded to 6 bytes, as a driver with a wider stride delivers.
	padded := make([][]byte, 5)
	for i := range padded {
		padded[i] = make([]byte, 6*2)
	}
	src := &fakeSource{width: 4, height: 2, frames: append(padded, make([]byte, 8))}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	stats, err := Run(context.Background(), &fakeConverter{policy: convert.AutoRGB}, src, Options{
		Frames:      1,
		ResizeWidth: -1,
		Logger:      logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Dropped != 5 || stats.Frames != 1 {
		t.Errorf("stats = %+v", stats)
	}

	var warns, debugs int
	for _, line := range strings.Split(logs.String(), "\n") {
		switch {
		case strings.Contains(line, "level=WARN") && strings.Contains(line, "Dropping frames"):
			warns++
		case strings.Contains(line, "level=DEBUG") && strings.Contains(line, "Dropping frame"):
			debugs++
		}
	}
	if warns != 1 || debugs != 4 {
		t.Errorf("warns = %d, debugs = %d, want 1 and 4\nlogs:\n%s", warns, debugs, logs.String())
	}
}

func TestRunReadErrorPublishes(t *testing.T) {
	bus := events.New()
	got := make(chan events.CaptureErrorEvent, 1)
	defer bus.Subscribe(func(e events.CaptureErrorEvent) { got <- e })()

	boom := errors.New("dqbuf: input/output error")
	src := &fakeSource{width: 4, height: 2, frames: mosaicFrames(1, 4, 2), errs: []error{nil, boom}}

	stats, err := Run(context.Background(), &fakeConverter{policy: convert.AutoRGB}, src, Options{
		ResizeWidth: -1,
		Bus:         bus,
		Logger:      quiet(),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if stats.Frames != 1 {
		t.Errorf("frames = %d, want 1", stats.Frames)
	}
	select {
	case e := <-got:
		if e.SessionID != "session-1" || !strings.Contains(e.Error, "input/output") {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no CaptureErrorEvent")
	}
}

func TestRunStartError(t *testing.T) {
	src := &fakeSource{startErr: errors.New("busy")}
	if _, err := Run(context.Background(), &fakeConverter{}, src, Options{Logger: quiet()}); err == nil {
		t.Fatal("expected start error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{width: 4, height: 2, frames: mosaicFrames(5, 4, 2)}
	stats, err := Run(ctx, &fakeConverter{policy: convert.AutoRGB}, src, Options{Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Frames != 0 {
		t.Errorf("frames = %d after cancellation", stats.Frames)
	}
}

func TestRunWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{width: 4, height: 2, frames: mosaicFrames(2, 4, 2)}
	stats, err := Run(context.Background(), &fakeConverter{policy: convert.AutoRGB}, src, Options{
		Frames:         2,
		ResizeWidth:    -1,
		SnapshotDir:    dir,
		SnapshotFormat: "jpg",
		Logger:         quiet(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(stats.Snapshot) != dir || filepath.Ext(stats.Snapshot) != ".jpg" {
		t.Fatalf("snapshot path = %q", stats.Snapshot)
	}
	f, err := os.Open(stats.Snapshot)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil || format != "jpeg" {
		t.Errorf("snapshot decode = %q, %v", format, err)
	}
}

func TestStatsSummary(t *testing.T) {
	s := Stats{Frames: 50, Elapsed: 2 * time.Second}
	if s.AvgInterval() != 40*time.Millisecond {
		t.Errorf("AvgInterval = %v", s.AvgInterval())
	}
	lines := s.Summary()
	if lines[0] != "Average time between frames: 0.040000" || lines[1] != "Average FPS: 25.00" {
		t.Errorf("Summary = %q", lines)
	}
	if (Stats{}).AvgFPS() != 0 {
		t.Error("empty stats should report zero fps")
	}
}

func TestEncodeFormats(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	for _, format := range []string{"png", "jpeg", "jpg", "bmp", "tiff", ".tif"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, img, format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("empty output")
			}
		})
	}

	if err := Encode(io.Discard, img, "gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("gif: err = %v, want ErrUnknownFormat", err)
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{"": "png", "JPG": "jpeg", "tif": "tiff", "bmp": "bmp"}
	for in, want := range tests {
		got, err := NormalizeFormat(in)
		if err != nil || got != want {
			t.Errorf("NormalizeFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if ContentType("jpeg") != "image/jpeg" || ContentType("png") != "image/png" {
		t.Error("unexpected content types")
	}
}

package capture

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned for snapshot formats other than png, jpeg,
// bmp and tiff.
var ErrUnknownFormat = errors.New("capture: unknown snapshot format")

// JPEGQuality is used for jpeg snapshots.
const JPEGQuality = 90

// NormalizeFormat maps aliases such as "jpg" and "tif" to their canonical
// names.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return "png", nil
	case "jpg", "jpeg":
		return "jpeg", nil
	case "bmp":
		return "bmp", nil
	case "tif", "tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type for a canonical format name.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}

// Encode writes img to w in the named format.
func Encode(w io.Writer, img image.Image, format string) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// WriteSnapshot stores img in dir under a timestamped name and returns the
// path written.
func WriteSnapshot(dir, format string, img image.Image, at time.Time) (string, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("mipicam-%s.%s", at.UTC().Format("20060102-150405.000"), ext))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return path, f.Close()
}

// Latest holds the most recent converted frame for readers outside the
// capture loop.
type Latest struct {
	mu  sync.RWMutex
	img image.Image
	seq uint64
	at  time.Time
}

// Store replaces the held frame.
func (l *Latest) Store(img image.Image) {
	l.mu.Lock()
	l.img = img
	l.seq++
	l.at = time.Now()
	l.mu.Unlock()
}

// Load returns the held frame, its sequence number and capture time. img
// is nil until the first Store.
func (l *Latest) Load() (img image.Image, seq uint64, at time.Time) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.img, l.seq, l.at
}

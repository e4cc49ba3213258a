package convert

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrFrameShape is returned when a buffer does not match its declared layout.
var ErrFrameShape = errors.New("convert: frame shape mismatch")

// Frame is a tightly packed, row-major pixel buffer. Sixteen-bit samples
// are stored little-endian, as V4L2 delivers them.
type Frame struct {
	Width          int
	Height         int
	Channels       int
	BytesPerSample int
	Pix            []byte
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height, channels, bytesPerSample int) *Frame {
	return &Frame{
		Width:          width,
		Height:         height,
		Channels:       channels,
		BytesPerSample: bytesPerSample,
		Pix:            make([]byte, width*height*channels*bytesPerSample),
	}
}

// FromBuffer wraps buf, inferring the layout from its length: one byte
// per pixel is 8-bit mono or mosaic, two bytes is 16-bit mono or mosaic,
// three bytes is 8-bit BGR.
func FromBuffer(buf []byte, width, height int) (*Frame, error) {
	pixels := width * height
	if pixels <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFrameShape, width, height)
	}
	f := &Frame{Width: width, Height: height, Pix: buf}
	switch len(buf) {
	case pixels:
		f.Channels, f.BytesPerSample = 1, 1
	case pixels * 2:
		f.Channels, f.BytesPerSample = 1, 2
	case pixels * 3:
		f.Channels, f.BytesPerSample = 3, 1
	default:
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrFrameShape, len(buf), width, height)
	}
	return f, nil
}

// Validate checks that Pix holds exactly Width*Height*Channels samples.
func (f *Frame) Validate() error {
	if f.Channels != 1 && f.Channels != 3 {
		return fmt.Errorf("%w: %d channels", ErrFrameShape, f.Channels)
	}
	if f.BytesPerSample != 1 && f.BytesPerSample != 2 {
		return fmt.Errorf("%w: %d bytes per sample", ErrFrameShape, f.BytesPerSample)
	}
	if want := f.Width * f.Height * f.Channels * f.BytesPerSample; len(f.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrFrameShape, len(f.Pix), want)
	}
	return nil
}

// Stride is the length of one row in bytes.
func (f *Frame) Stride() int {
	return f.Width * f.Channels * f.BytesPerSample
}

// Samples is the number of samples across all channels.
func (f *Frame) Samples() int {
	return f.Width * f.Height * f.Channels
}

// Sample returns sample i.
func (f *Frame) Sample(i int) int {
	if f.BytesPerSample == 2 {
		return int(binary.LittleEndian.Uint16(f.Pix[i*2:]))
	}
	return int(f.Pix[i])
}

// SetSample stores v at sample i, truncated to the sample width.
func (f *Frame) SetSample(i, v int) {
	if f.BytesPerSample == 2 {
		binary.LittleEndian.PutUint16(f.Pix[i*2:], uint16(v))
		return
	}
	f.Pix[i] = byte(v)
}

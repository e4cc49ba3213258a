package convert

import (
	"image"
	"image/color"
)

// BGR is an in-memory image whose samples are stored B, G, R.
type BGR struct {
	// Pix holds the image's pixels in B, G, R order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

var _ image.Image = &BGR{}

func (p *BGR) ColorModel() color.Model { return color.RGBAModel }

func (p *BGR) Bounds() image.Rectangle { return p.Rect }

func (p *BGR) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

// RGBAAt returns the opaque colour at (x, y).
func (p *BGR) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return color.RGBA{s[2], s[1], s[0], 0xFF}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *BGR) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// SubImage returns an image representing the portion of the image p visible
// through r. The returned value shares pixels with the original image.
func (p *BGR) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &BGR{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &BGR{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Image exposes the frame through the image package without copying
// 8-bit data. Sixteen-bit frames are copied into big-endian Gray16, or
// reduced to 8-bit BGR when they have three channels.
func (f *Frame) Image() image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch {
	case f.Channels == 1 && f.BytesPerSample == 1:
		return &image.Gray{Pix: f.Pix, Stride: f.Stride(), Rect: rect}
	case f.Channels == 1:
		img := image.NewGray16(rect)
		for i := 0; i < f.Samples(); i++ {
			v := f.Sample(i)
			img.Pix[i*2] = uint8(v >> 8)
			img.Pix[i*2+1] = uint8(v)
		}
		return img
	case f.BytesPerSample == 1:
		return &BGR{Pix: f.Pix, Stride: f.Stride(), Rect: rect}
	default:
		return &BGR{Pix: ScaleAbs(f, 1.0/256).Pix, Stride: f.Width * 3, Rect: rect}
	}
}

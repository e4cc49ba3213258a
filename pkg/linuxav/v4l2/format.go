//go:build linux

package v4l2

import (
	"errors"
	"iter"
	"log/slog"
	"syscall"
	"unsafe"
)

// Formats lazily enumerates the capture formats the driver advertises.
// The sequence ends cleanly when the driver reports the end of the list;
// any other failure is yielded once as an error and ends the sequence.
func (d *Device) Formats() iter.Seq2[FormatInfo, error] {
	return func(yield func(FormatInfo, error) bool) {
		for i := uint32(0); ; i++ {
			desc := v4l2Fmtdesc{
				index: i,
				typ:   v4l2BufTypeVideoCapture,
			}

			err := d.enumerate("VIDIOC_ENUM_FMT", vidiocEnumFmt, unsafe.Pointer(&desc))
			if errors.Is(err, ErrEnumerationExhausted) {
				return
			}
			if err != nil {
				yield(FormatInfo{}, err)
				return
			}

			info := FormatInfo{
				Index:       i,
				PixelFormat: desc.pixelformat,
				Description: cstr(desc.description[:]),
				Emulated:    desc.flags&v4l2FmtFlagEmulated != 0,
			}
			if !yield(info, nil) {
				return
			}
		}
	}
}

// GetFormats collects Formats into a slice.
func (d *Device) GetFormats() ([]FormatInfo, error) {
	var formats []FormatInfo
	for f, err := range d.Formats() {
		if err != nil {
			return formats, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// FrameSizes lazily enumerates the frame sizes supported for pixelFormat.
// Stepwise and continuous ranges are expanded to the common resolutions
// that fit inside them.
func (d *Device) FrameSizes(pixelFormat uint32) iter.Seq2[Resolution, error] {
	return func(yield func(Resolution, error) bool) {
		for i := uint32(0); ; i++ {
			frmsize := v4l2Frmsizeenum{
				index:       i,
				pixelFormat: pixelFormat,
			}

			err := d.enumerate("VIDIOC_ENUM_FRAMESIZES", vidiocEnumFramesizes, unsafe.Pointer(&frmsize))
			if errors.Is(err, ErrEnumerationExhausted) {
				return
			}
			// ENOTTY means device doesn't support frame size enumeration
			if errors.Is(err, syscall.ENOTTY) {
				return
			}
			if err != nil {
				yield(Resolution{}, err)
				return
			}

			switch frmsize.typ {
			case v4l2FrmsizeTypeDiscrete:
				res := Resolution{Width: frmsize.discrete.width, Height: frmsize.discrete.height}
				if !yield(res, nil) {
					return
				}
			case v4l2FrmsizeTypeContinuous, v4l2FrmsizeTypeStepwise:
				for _, res := range stepwiseResolutions(&frmsize) {
					if !yield(res, nil) {
						return
					}
				}
				return // Only one stepwise entry
			}
		}
	}
}

// GetFrameSizes collects FrameSizes into a slice.
func (d *Device) GetFrameSizes(pixelFormat uint32) ([]Resolution, error) {
	var sizes []Resolution
	for r, err := range d.FrameSizes(pixelFormat) {
		if err != nil {
			return sizes, err
		}
		sizes = append(sizes, r)
	}
	return sizes, nil
}

// GetFormat returns the active capture format.
func (d *Device) GetFormat() (PixFormat, error) {
	f := v4l2Format{typ: v4l2BufTypeVideoCapture}
	if err := d.Control("VIDIOC_G_FMT", vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, err
	}
	return f.pix.export(), nil
}

// GetPixelFormat returns the active capture pixel format code.
func (d *Device) GetPixelFormat() (uint32, error) {
	f, err := d.GetFormat()
	if err != nil {
		return 0, err
	}
	return f.PixelFormat, nil
}

// SetFormat applies the non-zero fields of want on top of the active
// format and returns what the driver settled on.
func (d *Device) SetFormat(want PixFormat) (PixFormat, error) {
	f := v4l2Format{typ: v4l2BufTypeVideoCapture}
	if err := d.Control("VIDIOC_G_FMT", vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, err
	}
	if want.Width != 0 {
		f.pix.width = want.Width
	}
	if want.Height != 0 {
		f.pix.height = want.Height
	}
	if want.PixelFormat != 0 {
		f.pix.pixelformat = want.PixelFormat
	}
	if err := d.Control("VIDIOC_S_FMT", vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return PixFormat{}, err
	}
	return f.pix.export(), nil
}

// TrySetPixelFormat switches the capture pixel format to target when it is
// not already active. A rejected or substituted format is logged and never
// returned as an error; the returned value is the format in effect
// afterwards, or zero if it could not be read.
func (d *Device) TrySetPixelFormat(target uint32) uint32 {
	logger := slog.With("component", "linuxav", "device", d.path)

	current, err := d.GetPixelFormat()
	if err != nil {
		logger.Warn("Failed to read pixel format", "error", err)
		return 0
	}
	if current == target {
		return current
	}

	applied, err := d.SetFormat(PixFormat{PixelFormat: target})
	if err != nil {
		logger.Warn("Pixel format rejected by driver",
			"requested", FormatFourCC(target), "current", FormatFourCC(current), "error", err)
		after, readErr := d.GetPixelFormat()
		if readErr != nil {
			logger.Warn("Failed to re-read pixel format", "error", readErr)
			return current
		}
		return after
	}
	if applied.PixelFormat != target {
		logger.Warn("Driver substituted pixel format",
			"requested", FormatFourCC(target), "applied", FormatFourCC(applied.PixelFormat))
	}
	return applied.PixelFormat
}

func (p *v4l2PixFormat) export() PixFormat {
	return PixFormat{
		Width:        p.width,
		Height:       p.height,
		PixelFormat:  p.pixelformat,
		Field:        p.field,
		BytesPerLine: p.bytesperline,
		SizeImage:    p.sizeimage,
		Colorspace:   p.colorspace,
	}
}

// stepwiseResolutions returns common resolutions within a stepwise range.
func stepwiseResolutions(frmsize *v4l2Frmsizeenum) []Resolution {
	commonResolutions := [][2]uint32{
		{320, 240},  // QVGA
		{640, 480},  // VGA
		{1280, 720}, // HD
		{1280, 800},
		{1920, 1080}, // Full HD
		{2560, 1440},
		{3840, 2160}, // 4K UHD
		{4032, 3040}, // IMX477 full sensor
	}

	// Extract stepwise params from union (stepwise overlays discrete in memory)
	stepwise := (*v4l2FrmsizeStepwise)(unsafe.Pointer(&frmsize.discrete))

	var resolutions []Resolution
	for _, res := range commonResolutions {
		w, h := res[0], res[1]
		if w >= stepwise.minWidth && w <= stepwise.maxWidth &&
			h >= stepwise.minHeight && h <= stepwise.maxHeight {
			resolutions = append(resolutions, Resolution{Width: w, Height: h})
		}
	}
	return resolutions
}

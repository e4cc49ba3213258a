package v4l2

import (
	"fmt"
	"strings"
)

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}

// ParseFourCC packs a three or four character code into a pixel format.
// Three character codes are padded with a trailing space, so "Y16"
// yields the same value as "Y16 ".
func ParseFourCC(s string) (uint32, error) {
	switch len(s) {
	case 3:
		s += " "
	case 4:
	default:
		return 0, fmt.Errorf("invalid fourcc %q: want 3 or 4 characters", s)
	}
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24, nil
}

var formatNames = map[uint32]string{
	PixFmtSBGGR8:  "V4L2_PIX_FMT_SBGGR8",
	PixFmtSGBRG8:  "V4L2_PIX_FMT_SGBRG8",
	PixFmtSGRBG8:  "V4L2_PIX_FMT_SGRBG8",
	PixFmtSRGGB8:  "V4L2_PIX_FMT_SRGGB8",
	PixFmtSBGGR10: "V4L2_PIX_FMT_SBGGR10",
	PixFmtSGBRG10: "V4L2_PIX_FMT_SGBRG10",
	PixFmtSGRBG10: "V4L2_PIX_FMT_SGRBG10",
	PixFmtSRGGB10: "V4L2_PIX_FMT_SRGGB10",
	PixFmtSBGGR12: "V4L2_PIX_FMT_SBGGR12",
	PixFmtSGBRG12: "V4L2_PIX_FMT_SGBRG12",
	PixFmtSGRBG12: "V4L2_PIX_FMT_SGRBG12",
	PixFmtSRGGB12: "V4L2_PIX_FMT_SRGGB12",
	PixFmtGrey:    "V4L2_PIX_FMT_GREY",
	PixFmtY10:     "V4L2_PIX_FMT_Y10",
	PixFmtY12:     "V4L2_PIX_FMT_Y12",
	PixFmtY16:     "V4L2_PIX_FMT_Y16",
	PixFmtYUYV:    "V4L2_PIX_FMT_YUYV",
	PixFmtUYVY:    "V4L2_PIX_FMT_UYVY",
	PixFmtMJPEG:   "V4L2_PIX_FMT_MJPEG",
	PixFmtNV12:    "V4L2_PIX_FMT_NV12",
	PixFmtRGB24:   "V4L2_PIX_FMT_RGB24",
	PixFmtBGR24:   "V4L2_PIX_FMT_BGR24",
}

// FourCCName returns the symbolic V4L2 name of a pixel format, or
// "Unknown (0x........)" for codes outside the known set.
func FourCCName(format uint32) string {
	if name, ok := formatNames[format]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%08X)", format)
}

// DescribeFourCC renders a format as "RG10 (V4L2_PIX_FMT_SRGGB10)".
func DescribeFourCC(format uint32) string {
	return fmt.Sprintf("%s (%s)", strings.TrimRight(FormatFourCC(format), " \x00"), FourCCName(format))
}

package v4l2

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	Driver     string
	BusInfo    string
	Caps       uint32
}

// FormatInfo is one entry of the capture format enumeration.
type FormatInfo struct {
	Index       uint32
	PixelFormat uint32
	Description string
	Emulated    bool
}

// Resolution represents a supported frame size.
type Resolution struct {
	Width  uint32
	Height uint32
}

// PixFormat is the negotiated single-plane capture format.
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
}

// Capability flags.
const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapDeviceCaps   = 0x80000000
)

// Format flags.
const (
	v4l2FmtFlagEmulated = 0x0002
)

// Pixel formats. Values are little-endian FourCC codes.
const (
	PixFmtSBGGR8  uint32 = 0x31384142 // 'BA81'
	PixFmtSGBRG8  uint32 = 0x47524247 // 'GBRG'
	PixFmtSGRBG8  uint32 = 0x47425247 // 'GRBG'
	PixFmtSRGGB8  uint32 = 0x42474752 // 'RGGB'
	PixFmtSBGGR10 uint32 = 0x30314742 // 'BG10'
	PixFmtSGBRG10 uint32 = 0x30314247 // 'GB10'
	PixFmtSGRBG10 uint32 = 0x30314142 // 'BA10'
	PixFmtSRGGB10 uint32 = 0x30314752 // 'RG10'
	PixFmtSBGGR12 uint32 = 0x32314742 // 'BG12'
	PixFmtSGBRG12 uint32 = 0x32314247 // 'GB12'
	PixFmtSGRBG12 uint32 = 0x32314142 // 'BA12'
	PixFmtSRGGB12 uint32 = 0x32314752 // 'RG12'
	PixFmtGrey    uint32 = 0x59455247 // 'GREY'
	PixFmtY10     uint32 = 0x20303159 // 'Y10 '
	PixFmtY12     uint32 = 0x20323159 // 'Y12 '
	PixFmtY16     uint32 = 0x20363159 // 'Y16 '
	PixFmtYUYV    uint32 = 0x56595559 // 'YUYV'
	PixFmtUYVY    uint32 = 0x59565955 // 'UYVY'
	PixFmtMJPEG   uint32 = 0x47504A4D // 'MJPG'
	PixFmtNV12    uint32 = 0x3231564E // 'NV12'
	PixFmtRGB24   uint32 = 0x33424752 // 'RGB3'
	PixFmtBGR24   uint32 = 0x33524742 // 'BGR3'
)

// Frame size types.
const (
	v4l2FrmsizeTypeDiscrete   = 1
	v4l2FrmsizeTypeContinuous = 2
	v4l2FrmsizeTypeStepwise   = 3
)

// Buffer type.
const (
	v4l2BufTypeVideoCapture = 1
)

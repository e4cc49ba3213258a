package models

// DeviceData describes the open capture node.
type DeviceData struct {
	SessionID     string        `json:"session_id" doc:"Session identifier"`
	DevicePath    string        `json:"device_path" example:"/dev/video0" doc:"Path to the video device"`
	DeviceName    string        `json:"device_name" example:"vi-output, arducam-csi2 9-000c" doc:"Card name reported by the driver"`
	Driver        string        `json:"driver" example:"tegra-video" doc:"Kernel driver"`
	BusInfo       string        `json:"bus_info" doc:"Bus location"`
	Capabilities  []string      `json:"capabilities" doc:"Decoded capability flags"`
	Platform      string        `json:"platform" example:"NVIDIA Jetson Xavier NX Developer Kit" doc:"Detected host platform, empty if unknown"`
	ActiveFormat  PixFormat     `json:"active_format" doc:"Current capture format"`
	Firmware      *FirmwareInfo `json:"firmware,omitempty" doc:"Bridge identity, absent if the registers could not be read"`
	FirmwareError string        `json:"firmware_error,omitempty" doc:"Why firmware identity is missing"`
}

// FirmwareInfo is the bridge identity block. Zero means the firmware did
// not report the field.
type FirmwareInfo struct {
	FirmwareVersion  uint32 `json:"firmware_version" example:"3"`
	FirmwareSensorID uint32 `json:"firmware_sensor_id" example:"1143"`
	SensorID         uint32 `json:"sensor_id" example:"1143" doc:"Sensor chip id, 0x0477 for IMX477"`
	SerialNumber     uint32 `json:"serial_number"`
	SerialHex        string `json:"serial_hex" example:"0x0000CAFE"`
}

type DeviceResponse struct {
	Body DeviceData
}

// PixFormat is the active single-plane capture format.
type PixFormat struct {
	Width        uint32 `json:"width" example:"4032"`
	Height       uint32 `json:"height" example:"3040"`
	PixelFormat  string `json:"pixel_format" example:"RG10"`
	FormatName   string `json:"format_name" example:"V4L2_PIX_FMT_SRGGB10"`
	BytesPerLine uint32 `json:"bytes_per_line" example:"8064"`
	SizeImage    uint32 `json:"size_image" example:"24514560"`
}

// FormatInfo is one advertised pixel format.
type FormatInfo struct {
	Index       uint32 `json:"index" example:"0"`
	PixelFormat string `json:"pixel_format" example:"RG10"`
	Description string `json:"description" example:"10-bit Bayer RGRG/GBGB"`
	Emulated    bool   `json:"emulated"`
	HasPolicy   bool   `json:"has_policy" doc:"Whether the active policy table covers this format"`
}

type FormatsData struct {
	Formats []FormatInfo `json:"formats"`
	Count   int          `json:"count"`
}

type FormatsResponse struct {
	Body FormatsData
}

// Resolution is one frame size.
type Resolution struct {
	Width  uint32 `json:"width" example:"1920"`
	Height uint32 `json:"height" example:"1080"`
}

type FrameSizesData struct {
	PixelFormat string       `json:"pixel_format" example:"Y16 "`
	Sizes       []Resolution `json:"sizes"`
	Count       int          `json:"count"`
}

type FrameSizesResponse struct {
	Body FrameSizesData
}

// Candidate is a format that matched the policy table during resolution.
type Candidate struct {
	Index       uint32 `json:"index"`
	PixelFormat string `json:"pixel_format" example:"RG10"`
	Description string `json:"description"`
	Policy      Policy `json:"policy"`
}

// Policy mirrors convert.Policy with readable codes.
type Policy struct {
	BitDepth    int    `json:"bit_depth" example:"10" doc:"Sample depth rescaled from, -1 for none"`
	ColorCode   int    `json:"color_code" example:"46" doc:"Demosaic code, -1 for none"`
	ColorName   string `json:"color_name" example:"BayerBG2BGR"`
	PassThrough bool   `json:"pass_through" doc:"Frames are already RGB"`
}

type PolicyData struct {
	PixelFormat     string      `json:"pixel_format" example:"RG10" doc:"Format the policy was chosen for, empty for the fallback"`
	Source          string      `json:"source" example:"single_candidate" enum:"raw8,single_candidate,chosen,fallback"`
	Table           string      `json:"table" example:"standard"`
	Policy          Policy      `json:"policy"`
	Candidates      []Candidate `json:"candidates"`
	PreferredFormat string      `json:"preferred_format" example:"RG10"`
}

type PolicyResponse struct {
	Body PolicyData
}

package convert

import "fmt"

// ColorCode selects a demosaic pattern.
type ColorCode int

// Color codes. Comments give the top-left 2x2 layout of the mosaic.
const (
	ColorNone        ColorCode = -1
	ColorBayerBG2BGR ColorCode = 46 // R G / G B
	ColorBayerGB2BGR ColorCode = 47 // G R / B G
	ColorBayerRG2BGR ColorCode = 48 // B G / G R
	ColorBayerGR2BGR ColorCode = 49 // G B / R G
)

var colorCodeNames = map[ColorCode]string{
	ColorNone:        "none",
	ColorBayerBG2BGR: "BayerBG2BGR",
	ColorBayerGB2BGR: "BayerGB2BGR",
	ColorBayerRG2BGR: "BayerRG2BGR",
	ColorBayerGR2BGR: "BayerGR2BGR",
}

func (c ColorCode) String() string {
	if name, ok := colorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ColorCode(%d)", int(c))
}

// NoRescale disables the depth rescale step.
const NoRescale = -1

// Policy is the conversion applied to every frame of a session.
type Policy struct {
	BitDepth    int       `json:"bit_depth"`
	ColorCode   ColorCode `json:"color_code"`
	PassThrough bool      `json:"pass_through"`
}

// AutoRGB leaves frames untouched, relying on the capture path to deliver
// displayable pixels.
var AutoRGB = Policy{BitDepth: NoRescale, ColorCode: ColorNone, PassThrough: true}

func (p Policy) String() string {
	if p.PassThrough {
		return "pass-through"
	}
	return fmt.Sprintf("depth=%d color=%s", p.BitDepth, p.ColorCode)
}

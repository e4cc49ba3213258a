package negotiate

import (
	"slices"
	"strings"

	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// Table maps pixel formats to conversion policies. Tables are fixed at
// startup and shared read-only.
type Table struct {
	name     string
	policies map[uint32]convert.Policy
}

// Name identifies the table in logs and API responses.
func (t Table) Name() string { return t.name }

// Lookup returns the policy for pixelFormat.
func (t Table) Lookup(pixelFormat uint32) (convert.Policy, bool) {
	p, ok := t.policies[pixelFormat]
	return p, ok
}

// Formats lists the table's pixel formats in ascending order.
func (t Table) Formats() []uint32 {
	out := make([]uint32, 0, len(t.policies))
	for pf := range t.policies {
		out = append(out, pf)
	}
	slices.Sort(out)
	return out
}

func bayerTable(name string, depth int, bggr, gbrg, grbg, rggb uint32, mono ...uint32) Table {
	t := Table{name: name, policies: map[uint32]convert.Policy{
		bggr: {BitDepth: depth, ColorCode: convert.ColorBayerRG2BGR},
		gbrg: {BitDepth: depth, ColorCode: convert.ColorBayerGR2BGR},
		grbg: {BitDepth: depth, ColorCode: convert.ColorBayerGB2BGR},
		rggb: {BitDepth: depth, ColorCode: convert.ColorBayerBG2BGR},
	}}
	for _, pf := range mono {
		t.policies[pf] = convert.Policy{BitDepth: depth, ColorCode: convert.ColorNone}
	}
	return t
}

var (
	raw8Table = bayerTable("raw8", 8,
		v4l2.PixFmtSBGGR8, v4l2.PixFmtSGBRG8, v4l2.PixFmtSGRBG8, v4l2.PixFmtSRGGB8)

	standardTable = bayerTable("standard", 10,
		v4l2.PixFmtSBGGR10, v4l2.PixFmtSGBRG10, v4l2.PixFmtSGRBG10, v4l2.PixFmtSRGGB10, v4l2.PixFmtY10)

	extendedTable = bayerTable("xavier_nx", 16,
		v4l2.PixFmtSBGGR10, v4l2.PixFmtSGBRG10, v4l2.PixFmtSGRBG10, v4l2.PixFmtSRGGB10, v4l2.PixFmtY10)
)

// Raw8Table covers 8-bit Bayer formats. It is consulted before any
// enumeration because those formats never need disambiguation.
func Raw8Table() Table { return raw8Table }

// StandardTable assumes 10-bit samples.
func StandardTable() Table { return standardTable }

// ExtendedTable assumes samples left-justified in 16 bits, as the VI
// engines on newer modules deliver them.
func ExtendedTable() Table { return extendedTable }

// ExtendedDepthFamilies are the module names that deliver 16-bit samples.
var ExtendedDepthFamilies = []string{"Xavier NX", "Orin NX", "Orin Nano", "AGX Orin"}

// TableForPlatform returns ExtendedTable when platform names one of
// ExtendedDepthFamilies, and StandardTable otherwise.
func TableForPlatform(platform string) Table {
	for _, family := range ExtendedDepthFamilies {
		if strings.Contains(platform, family) {
			return extendedTable
		}
	}
	return standardTable
}

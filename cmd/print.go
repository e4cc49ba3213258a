package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smazurov/mipicam/internal/negotiate"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// printFormats lists advertised formats and marks those a policy table
// can convert.
func printFormats(w io.Writer, formats []v4l2.FormatInfo, table negotiate.Table) {
	fmt.Fprintln(w, "The camera supported pixel formats:")
	for _, f := range formats {
		fmt.Fprintf(w, "%d: %s (pixelformat: 0x%08x)\n", f.Index, f.Description, f.PixelFormat)
	}

	fmt.Fprintln(w, "The program supported pixel formats:")
	for _, f := range formats {
		if p, ok := lookupPolicy(table, f.PixelFormat); ok {
			fmt.Fprintf(w, "%s: %s\n", v4l2.DescribeFourCC(f.PixelFormat), p)
		}
	}
}

func lookupPolicy(table negotiate.Table, pixelFormat uint32) (fmt.Stringer, bool) {
	if p, ok := negotiate.Raw8Table().Lookup(pixelFormat); ok {
		return p, true
	}
	if p, ok := table.Lookup(pixelFormat); ok {
		return p, true
	}
	return nil, false
}

func printSizes(w io.Writer, pixelFormat uint32, sizes []v4l2.Resolution) {
	fmt.Fprintf(w, "Frame sizes for %s:\n", v4l2.DescribeFourCC(pixelFormat))
	if len(sizes) == 0 {
		fmt.Fprintln(w, "  (none reported)")
		return
	}
	for _, r := range sizes {
		fmt.Fprintf(w, "  %dx%d\n", r.Width, r.Height)
	}
}

func printDecision(w io.Writer, platform string, d negotiate.Decision) {
	if platform == "" {
		platform = "unknown"
	}
	fmt.Fprintf(w, "Hardware is: %s\n", platform)
	fmt.Fprintf(w, "Policy table: %s\n", d.Table)
	for i, c := range d.Candidates {
		fmt.Fprintf(w, "  candidate %d: %s %s\n", i, v4l2.DescribeFourCC(c.PixelFormat), c.Policy)
	}
	key := "AUTO_CONVERT_TO_RGB"
	if d.PixelFormat != 0 {
		key = v4l2.FourCCName(d.PixelFormat)
	}
	fmt.Fprintf(w, "Key: %s, Value: %s (%s)\n", key, d.Policy, d.Source)
}

// parsePixelFormat accepts a FourCC such as "RG10" or "Y16", or a
// number. "none" and "" yield zero.
func parsePixelFormat(s string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid pixel format %q: %w", s, err)
		}
		return uint32(v), nil
	}
	return v4l2.ParseFourCC(s)
}

// parseValue parses decimal, 0x hex or 0b binary register values.
func parseValue(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %d-bit value %q: %w", bits, s, err)
	}
	return v, nil
}

package negotiate

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"strings"
	"syscall"
	"testing"

	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

type fakeLister struct {
	formats []uint32
	err     error
	calls   int
}

func (f *fakeLister) Formats() iter.Seq2[v4l2.FormatInfo, error] {
	return func(yield func(v4l2.FormatInfo, error) bool) {
		f.calls++
		for i, pf := range f.formats {
			info := v4l2.FormatInfo{Index: uint32(i), PixelFormat: pf, Description: v4l2.FourCCName(pf)}
			if !yield(info, nil) {
				return
			}
		}
		if f.err != nil {
			yield(v4l2.FormatInfo{}, f.err)
		}
	}
}

type fixedChooser struct {
	pick  int
	err   error
	seen  []Candidate
	calls int
}

func (c *fixedChooser) Choose(candidates []Candidate) (int, error) {
	c.calls++
	c.seen = candidates
	return c.pick, c.err
}

func TestTableForPlatform(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{"NVIDIA Orin NX Developer Kit", "xavier_nx"},
		{"NVIDIA Jetson Xavier NX Developer Kit", "xavier_nx"},
		{"NVIDIA Orin Nano Developer Kit", "xavier_nx"},
		{"Jetson AGX Orin", "xavier_nx"},
		{"NVIDIA Jetson Nano Developer Kit", "standard"},
		{"NVIDIA Jetson AGX Xavier", "standard"},
		{"", "standard"},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			if got := TableForPlatform(tt.platform).Name(); got != tt.want {
				t.Errorf("TableForPlatform(%q) = %s, want %s", tt.platform, got, tt.want)
			}
		})
	}
}

func TestTableEntries(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		pf    uint32
		want  convert.Policy
	}{
		{"standard BGGR", StandardTable(), v4l2.PixFmtSBGGR10, convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerRG2BGR}},
		{"standard GBRG", StandardTable(), v4l2.PixFmtSGBRG10, convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerGR2BGR}},
		{"standard GRBG", StandardTable(), v4l2.PixFmtSGRBG10, convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerGB2BGR}},
		{"standard RGGB", StandardTable(), v4l2.PixFmtSRGGB10, convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerBG2BGR}},
		{"standard Y10", StandardTable(), v4l2.PixFmtY10, convert.Policy{BitDepth: 10, ColorCode: convert.ColorNone}},
		{"extended RGGB", ExtendedTable(), v4l2.PixFmtSRGGB10, convert.Policy{BitDepth: 16, ColorCode: convert.ColorBayerBG2BGR}},
		{"extended Y10", ExtendedTable(), v4l2.PixFmtY10, convert.Policy{BitDepth: 16, ColorCode: convert.ColorNone}},
		{"raw8 BGGR", Raw8Table(), v4l2.PixFmtSBGGR8, convert.Policy{BitDepth: 8, ColorCode: convert.ColorBayerRG2BGR}},
		{"raw8 RGGB", Raw8Table(), v4l2.PixFmtSRGGB8, convert.Policy{BitDepth: 8, ColorCode: convert.ColorBayerBG2BGR}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.table.Lookup(tt.pf)
			if !ok {
				t.Fatalf("%s has no entry for %s", tt.table.Name(), v4l2.FormatFourCC(tt.pf))
			}
			if got != tt.want {
				t.Errorf("Lookup(%s) = %+v, want %+v", v4l2.FormatFourCC(tt.pf), got, tt.want)
			}
		})
	}

	if _, ok := StandardTable().Lookup(v4l2.PixFmtY16); ok {
		t.Error("Y16 must not have a policy")
	}
	if n := len(ExtendedTable().Formats()); n != 5 {
		t.Errorf("extended table has %d formats, want 5", n)
	}
}

func TestResolveRaw8IgnoresPlatform(t *testing.T) {
	platforms := []string{
		"NVIDIA Jetson Xavier NX Developer Kit",
		"NVIDIA Orin NX Developer Kit",
		"NVIDIA Orin Nano Developer Kit",
		"Jetson AGX Orin",
		"NVIDIA Jetson Nano Developer Kit",
		"",
	}

	for _, pf := range Raw8Table().Formats() {
		want, _ := Raw8Table().Lookup(pf)
		for _, platform := range platforms {
			t.Run(v4l2.FormatFourCC(pf)+"/"+platform, func(t *testing.T) {
				lister := &fakeLister{formats: []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY10, pf}}
				chooser := &fixedChooser{pick: 0}

				d, err := Resolve(platform, pf, lister, chooser)
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if d.Policy != want || d.Source != SourceRaw8 || d.PixelFormat != pf {
					t.Errorf("Resolve() = %+v, want %v from raw8", d, want)
				}
				if lister.calls != 0 || chooser.calls != 0 {
					t.Errorf("enumerated %d times and chose %d times, want none", lister.calls, chooser.calls)
				}
			})
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		platform   string
		current    uint32
		formats    []uint32
		chooser    *fixedChooser
		want       convert.Policy
		wantSource Source
		wantPF     uint32
		wantCalls  int
	}{
		{
			name:       "raw8 short-circuits enumeration",
			platform:   "NVIDIA Jetson Nano Developer Kit",
			current:    v4l2.PixFmtSRGGB8,
			formats:    []uint32{v4l2.PixFmtSRGGB8, v4l2.PixFmtSRGGB10},
			want:       convert.Policy{BitDepth: 8, ColorCode: convert.ColorBayerBG2BGR},
			wantSource: SourceRaw8,
			wantPF:     v4l2.PixFmtSRGGB8,
			wantCalls:  0,
		},
		{
			name:       "two matches without chooser falls back",
			platform:   "NVIDIA Orin NX Developer Kit",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY10},
			want:       convert.AutoRGB,
			wantSource: SourceFallback,
			wantCalls:  1,
		},
		{
			name:       "single match is used",
			platform:   "NVIDIA Jetson Nano Developer Kit",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY16},
			want:       convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerBG2BGR},
			wantSource: SourceSingle,
			wantPF:     v4l2.PixFmtSRGGB10,
			wantCalls:  1,
		},
		{
			name:       "extended depth on Orin Nano",
			platform:   "NVIDIA Orin Nano Developer Kit",
			current:    v4l2.PixFmtSGBRG10,
			formats:    []uint32{v4l2.PixFmtSGBRG10},
			want:       convert.Policy{BitDepth: 16, ColorCode: convert.ColorBayerGR2BGR},
			wantSource: SourceSingle,
			wantPF:     v4l2.PixFmtSGBRG10,
			wantCalls:  1,
		},
		{
			name:       "no match falls back",
			platform:   "",
			current:    v4l2.PixFmtYUYV,
			formats:    []uint32{v4l2.PixFmtYUYV, v4l2.PixFmtMJPEG},
			want:       convert.AutoRGB,
			wantSource: SourceFallback,
			wantCalls:  1,
		},
		{
			name:       "chooser picks second",
			platform:   "NVIDIA Orin NX Developer Kit",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY16, v4l2.PixFmtY10},
			chooser:    &fixedChooser{pick: 1},
			want:       convert.Policy{BitDepth: 16, ColorCode: convert.ColorNone},
			wantSource: SourceChosen,
			wantPF:     v4l2.PixFmtY10,
			wantCalls:  1,
		},
		{
			name:       "chooser declines",
			platform:   "NVIDIA Orin NX Developer Kit",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY10},
			chooser:    &fixedChooser{pick: UseFallback},
			want:       convert.AutoRGB,
			wantSource: SourceFallback,
			wantCalls:  1,
		},
		{
			name:       "chooser failure falls back",
			platform:   "NVIDIA Orin NX Developer Kit",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY10},
			chooser:    &fixedChooser{pick: 0, err: errors.New("terminal closed")},
			want:       convert.AutoRGB,
			wantSource: SourceFallback,
			wantCalls:  1,
		},
		{
			name:       "chooser out of range falls back",
			platform:   "",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSRGGB10, v4l2.PixFmtY10},
			chooser:    &fixedChooser{pick: 7},
			want:       convert.AutoRGB,
			wantSource: SourceFallback,
			wantCalls:  1,
		},
		{
			name:       "chooser consulted for a single match",
			platform:   "",
			current:    v4l2.PixFmtY16,
			formats:    []uint32{v4l2.PixFmtSBGGR10},
			chooser:    &fixedChooser{pick: 0},
			want:       convert.Policy{BitDepth: 10, ColorCode: convert.ColorBayerRG2BGR},
			wantSource: SourceChosen,
			wantPF:     v4l2.PixFmtSBGGR10,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{formats: tt.formats}
			var chooser Chooser
			if tt.chooser != nil {
				chooser = tt.chooser
			}

			got, err := Resolve(tt.platform, tt.current, lister, chooser)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Policy != tt.want {
				t.Errorf("Policy = %+v, want %+v", got.Policy, tt.want)
			}
			if got.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", got.Source, tt.wantSource)
			}
			if got.PixelFormat != tt.wantPF {
				t.Errorf("PixelFormat = %s, want %s", v4l2.FormatFourCC(got.PixelFormat), v4l2.FormatFourCC(tt.wantPF))
			}
			if lister.calls != tt.wantCalls {
				t.Errorf("enumerations = %d, want %d", lister.calls, tt.wantCalls)
			}
			if tt.chooser != nil && tt.chooser.calls != 1 {
				t.Errorf("chooser consulted %d times, want 1", tt.chooser.calls)
			}
		})
	}
}

func TestResolveEnumerationFailure(t *testing.T) {
	ioErr := &v4l2.DeviceIOError{Op: "VIDIOC_ENUM_FMT", Errno: syscall.EIO}
	lister := &fakeLister{formats: []uint32{v4l2.PixFmtSRGGB10}, err: ioErr}

	_, err := Resolve("", v4l2.PixFmtY16, lister, nil)
	var got *v4l2.DeviceIOError
	if !errors.As(err, &got) {
		t.Fatalf("Resolve() error = %v, want *v4l2.DeviceIOError", err)
	}
}

func TestResolveCandidateOrder(t *testing.T) {
	chooser := &fixedChooser{pick: UseFallback}
	lister := &fakeLister{formats: []uint32{v4l2.PixFmtY16, v4l2.PixFmtSRGGB10, v4l2.PixFmtGrey, v4l2.PixFmtY10}}

	dec, err := Resolve("", v4l2.PixFmtY16, lister, chooser)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(chooser.seen) != 2 {
		t.Fatalf("chooser saw %d candidates, want 2", len(chooser.seen))
	}
	if chooser.seen[0].Index != 1 || chooser.seen[1].Index != 3 {
		t.Errorf("candidate indexes = %d, %d; want 1, 3", chooser.seen[0].Index, chooser.seen[1].Index)
	}
	if len(dec.Candidates) != 2 {
		t.Errorf("decision records %d candidates, want 2", len(dec.Candidates))
	}
}

func TestPromptChooser(t *testing.T) {
	candidates := []Candidate{
		{PixelFormat: v4l2.PixFmtSRGGB10, Description: "10-bit Bayer"},
		{PixelFormat: v4l2.PixFmtY10, Description: "10-bit Greyscale"},
	}

	tests := []struct {
		name       string
		input      string
		want       int
		wantOutput string
	}{
		{"enter selects fallback", "\n", UseFallback, "auto convert to RGB"},
		{"valid number", "1\n", 1, "0: RG10"},
		{"non-numeric re-prompts", "abc\n0\n", 0, "not a number"},
		{"out of range re-prompts", "5\n1\n", 1, "between 0 and 1"},
		{"negative re-prompts", "-1\n\n", UseFallback, "between 0 and 1"},
		{"end of input selects fallback", "", UseFallback, "Select a configuration"},
		{"surrounding spaces ignored", "  0  \n", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &PromptChooser{In: strings.NewReader(tt.input), Out: &out}

			got, err := p.Choose(candidates)
			if err != nil {
				t.Fatalf("Choose() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Choose() = %d, want %d", got, tt.want)
			}
			if !strings.Contains(out.String(), tt.wantOutput) {
				t.Errorf("output %q does not contain %q", out.String(), tt.wantOutput)
			}
		})
	}
}

func TestParseSelection(t *testing.T) {
	if _, err := parseSelection("x", 2); !errors.Is(err, ErrAmbiguousSelection) {
		t.Errorf("parseSelection(x) error = %v, want ErrAmbiguousSelection", err)
	}
	if idx, err := parseSelection("", 2); err != nil || idx != UseFallback {
		t.Errorf("parseSelection(\"\") = %d, %v", idx, err)
	}
}

func TestNewChooser(t *testing.T) {
	tests := []struct {
		kind    string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{ChooserNone, true, false},
		{ChooserPrompt, false, false},
		{ChooserTUI, false, false},
		{"gui", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c, err := NewChooser(tt.kind, strings.NewReader(""), io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (c == nil) != tt.wantNil {
				t.Errorf("chooser = %#v, wantNil %v", c, tt.wantNil)
			}
		})
	}
}

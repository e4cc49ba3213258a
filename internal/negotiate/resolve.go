// Package negotiate decides how captured frames must be converted.
//
// Resolution follows a fixed order: 8-bit Bayer formats are settled from
// the active format alone; otherwise every advertised format is matched
// against the platform's table, and the candidates are narrowed to one,
// handed to a Chooser, or abandoned in favour of convert.AutoRGB.
package negotiate

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/smazurov/mipicam/internal/convert"
	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// UseFallback is the selection a Chooser returns to pick convert.AutoRGB.
const UseFallback = -1

// ErrAmbiguousSelection reports unusable input during interactive
// disambiguation. Choosers retry on it; it never escapes Resolve.
var ErrAmbiguousSelection = errors.New("negotiate: ambiguous format selection")

// FormatLister enumerates the formats a device advertises.
// *v4l2.Device satisfies it.
type FormatLister interface {
	Formats() iter.Seq2[v4l2.FormatInfo, error]
}

// Candidate is an advertised format with a policy in the active table.
type Candidate struct {
	Index       uint32         `json:"index"`
	PixelFormat uint32         `json:"pixel_format"`
	Description string         `json:"description"`
	Policy      convert.Policy `json:"policy"`
}

// Chooser picks one of several candidates, or UseFallback.
type Chooser interface {
	Choose(candidates []Candidate) (int, error)
}

// Source records which rule produced a Decision.
type Source string

// Decision sources.
const (
	SourceRaw8     Source = "raw8"
	SourceSingle   Source = "single_candidate"
	SourceChosen   Source = "chosen"
	SourceFallback Source = "fallback"
)

// Decision is the outcome of Resolve.
type Decision struct {
	Policy      convert.Policy `json:"policy"`
	PixelFormat uint32         `json:"pixel_format"`
	Source      Source         `json:"source"`
	Table       string         `json:"table"`
	Candidates  []Candidate    `json:"candidates"`
}

// Resolver binds a table and an optional Chooser. A nil Chooser makes
// resolution non-interactive.
type Resolver struct {
	Table   Table
	Chooser Chooser
	Logger  *slog.Logger
}

// Resolve picks the policy for a device whose active format is current.
//
// With a Chooser, any non-empty candidate list is offered to it. Without
// one, a single candidate is taken and several fall back to
// convert.AutoRGB rather than guessing. Enumeration failures are returned.
func (r *Resolver) Resolve(current uint32, lister FormatLister) (Decision, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p, ok := Raw8Table().Lookup(current); ok {
		logger.Debug("Active format is raw8", "pixel_format", v4l2.FormatFourCC(current))
		return Decision{Policy: p, PixelFormat: current, Source: SourceRaw8, Table: raw8Table.name}, nil
	}

	var candidates []Candidate
	for f, err := range lister.Formats() {
		if err != nil {
			return Decision{}, fmt.Errorf("enumerate formats: %w", err)
		}
		p, ok := r.Table.Lookup(f.PixelFormat)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Index:       f.Index,
			PixelFormat: f.PixelFormat,
			Description: f.Description,
			Policy:      p,
		})
	}

	fallback := Decision{Policy: convert.AutoRGB, Source: SourceFallback, Table: r.Table.name, Candidates: candidates}

	if len(candidates) == 0 {
		logger.Info("No advertised format has a conversion policy, using auto RGB", "table", r.Table.name)
		return fallback, nil
	}

	if r.Chooser == nil {
		if len(candidates) == 1 {
			c := candidates[0]
			return Decision{Policy: c.Policy, PixelFormat: c.PixelFormat, Source: SourceSingle, Table: r.Table.name, Candidates: candidates}, nil
		}
		logger.Warn("Several formats match and no chooser is configured, using auto RGB",
			"table", r.Table.name, "candidates", len(candidates))
		return fallback, nil
	}

	idx, err := r.Chooser.Choose(candidates)
	if err != nil {
		logger.Warn("Format selection failed, using auto RGB", "error", err)
		return fallback, nil
	}
	if idx == UseFallback {
		return fallback, nil
	}
	if idx < 0 || idx >= len(candidates) {
		logger.Warn("Chooser returned out-of-range selection, using auto RGB", "selection", idx)
		return fallback, nil
	}
	c := candidates[idx]
	return Decision{Policy: c.Policy, PixelFormat: c.PixelFormat, Source: SourceChosen, Table: r.Table.name, Candidates: candidates}, nil
}

// Resolve is a convenience wrapper selecting the table from platform.
func Resolve(platform string, current uint32, lister FormatLister, chooser Chooser) (Decision, error) {
	r := Resolver{Table: TableForPlatform(platform), Chooser: chooser}
	return r.Resolve(current, lister)
}

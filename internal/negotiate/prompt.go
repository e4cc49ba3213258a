package negotiate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// PromptChooser asks on a line-oriented terminal. An empty line or end of
// input selects the fallback; anything else must be a listed number and
// is asked for again until it is.
type PromptChooser struct {
	In  io.Reader
	Out io.Writer
}

// Choose implements Chooser.
func (p *PromptChooser) Choose(candidates []Candidate) (int, error) {
	fmt.Fprintln(p.Out, "Multiple pixel format configurations match this device:")
	for i, c := range candidates {
		fmt.Fprintf(p.Out, "  %d: %s [%s] %s\n", i, v4l2.FormatFourCC(c.PixelFormat), c.Description, c.Policy)
	}

	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprintf(p.Out, "Select a configuration (0-%d), or press Enter to auto convert to RGB: ", len(candidates)-1)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return UseFallback, err
			}
			fmt.Fprintln(p.Out)
			return UseFallback, nil
		}

		idx, err := parseSelection(scanner.Text(), len(candidates))
		if errors.Is(err, ErrAmbiguousSelection) {
			fmt.Fprintln(p.Out, err)
			continue
		}
		return idx, err
	}
}

func parseSelection(line string, n int) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return UseFallback, nil
	}
	idx, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrAmbiguousSelection, line)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: enter a number between 0 and %d", ErrAmbiguousSelection, n-1)
	}
	return idx, nil
}

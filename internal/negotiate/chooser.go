package negotiate

import (
	"fmt"
	"io"
)

// Chooser kinds accepted by NewChooser.
const (
	ChooserNone   = "none"
	ChooserPrompt = "prompt"
	ChooserTUI    = "tui"
)

// NewChooser builds the Chooser named by kind. An empty kind or
// ChooserNone returns nil, which makes resolution headless.
func NewChooser(kind string, in io.Reader, out io.Writer) (Chooser, error) {
	switch kind {
	case "", ChooserNone:
		return nil, nil
	case ChooserPrompt:
		return &PromptChooser{In: in, Out: out}, nil
	case ChooserTUI:
		return TUIChooser{}, nil
	default:
		return nil, fmt.Errorf("unknown chooser %q (want %s, %s or %s)", kind, ChooserNone, ChooserPrompt, ChooserTUI)
	}
}

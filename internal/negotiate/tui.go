package negotiate

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/smazurov/mipicam/pkg/linuxav/v4l2"
)

// TUIChooser presents candidates as a full-screen list. Escape or q
// selects the fallback.
type TUIChooser struct{}

// Choose implements Chooser.
func (TUIChooser) Choose(candidates []Candidate) (int, error) {
	app := tview.NewApplication()
	choice := UseFallback

	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle("Select pixel format")

	for i, c := range candidates {
		var shortcut rune
		if i < 10 {
			shortcut = rune('0' + i)
		}
		main := fmt.Sprintf("%s  %s", v4l2.FormatFourCC(c.PixelFormat), c.Description)
		list.AddItem(main, c.Policy.String(), shortcut, func() {
			choice = i
			app.Stop()
		})
	}
	list.AddItem("Auto convert to RGB", "leave frames as delivered", 'a', func() {
		choice = UseFallback
		app.Stop()
	})

	list.SetDoneFunc(func() { app.Stop() })
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(list, true).Run(); err != nil {
		return UseFallback, err
	}
	return choice, nil
}

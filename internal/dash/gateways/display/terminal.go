package display

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/haukened/rr-dash/internal/dash/services/notify"
)

// Terminal renders notifications as coloured lines on a writer, usually stderr.
// Each slot id remembers its current message so a repeated slot is printed
// as an update rather than a new toast.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	toast  *color.Color
	update *color.Color
	slots  map[string]string
}

// NewTerminal returns a Terminal writing to out. Colour is disabled when
// noColor is set; fatih/color also disables it for non-TTY writers globally.
func NewTerminal(out io.Writer, noColor bool) *Terminal {
	toast := color.New(color.FgYellow, color.Bold)
	update := color.New(color.FgYellow)
	if noColor {
		toast.DisableColor()
		update.DisableColor()
	}
	return &Terminal{
		out:    out,
		toast:  toast,
		update: update,
		slots:  make(map[string]string),
	}
}

func (t *Terminal) Show(id, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, replacing := t.slots[id]; replacing {
		t.update.Fprintf(t.out, "  ~ %s\n", message)
	} else {
		t.toast.Fprintf(t.out, "  ! %s\n", message)
	}
	t.slots[id] = message
}

// Current returns the message currently held by slot id.
func (t *Terminal) Current(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots[id]
}

var _ notify.Display = (*Terminal)(nil)

package display

import (
	"slices"
	"sync"

	"github.com/haukened/rr-dash/internal/dash/services/notify"
)

// Shown is one message passed to a Recorder.
type Shown struct {
	ID      string
	Message string
}

// Recorder keeps every message it is shown. Used by tests and by the CLI's
// --quiet mode, which prints nothing and reports the count at exit.
type Recorder struct {
	mu    sync.Mutex
	shown []Shown
}

func (r *Recorder) Show(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, Shown{ID: id, Message: message})
}

// All returns the recorded messages in order.
func (r *Recorder) All() []Shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.shown)
}

// Len returns how many messages were shown.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

var _ notify.Display = (*Recorder)(nil)

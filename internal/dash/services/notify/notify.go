// Package notify implements the user-facing warning sink. Identical warnings
// are collapsed while they are still on screen.
package notify

import (
	"sync"
	"time"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/common/log"
)

// Window is how long a shown message suppresses an identical one.
const Window = 5 * time.Second

// Display renders a warning. id names the visual slot: showing a new message
// with the same id replaces the previous one instead of stacking.
type Display interface {
	Show(id, message string)
}

// Options configures a Deduplicator.
type Options struct {
	Display Display
	Clock   clock.Clock
	Logger  log.Logger
	// Window overrides the suppression window; zero means Window.
	Window time.Duration
}

// Deduplicator is the notification sink shared by the API client and the views.
// It tracks only the last message shown.
type Deduplicator struct {
	mu      sync.Mutex
	display Display
	clock   clock.Clock
	logger  log.Logger
	window  time.Duration

	last   string
	shown  bool
	lastAt time.Time
}

// New builds a Deduplicator. A nil display drops messages after logging them.
func New(opts Options) *Deduplicator {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Window <= 0 {
		opts.Window = Window
	}
	return &Deduplicator{
		display: opts.Display,
		clock:   opts.Clock,
		logger:  opts.Logger,
		window:  opts.Window,
	}
}

// Warn shows message in slot id unless the same message is still inside its
// window. It never fails.
func (d *Deduplicator) Warn(id, message string) {
	d.mu.Lock()
	now := d.clock.Now()
	d.expireLocked(now)
	if d.shown && d.last == message {
		d.mu.Unlock()
		d.logger.Debug(map[string]any{"id": id, "message": message}, "Duplicate notification suppressed")
		return
	}
	d.last = message
	d.shown = true
	d.lastAt = now
	display := d.display
	d.mu.Unlock()

	d.logger.Warn(map[string]any{"id": id, "message": message}, "Notification")
	if display != nil {
		display.Show(id, message)
	}
}

// Last returns the tracked message, or "" once its window has elapsed.
func (d *Deduplicator) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expireLocked(d.clock.Now())
	return d.last
}

// expireLocked clears the tracked message once the window has passed.
func (d *Deduplicator) expireLocked(now time.Time) {
	if d.shown && now.Sub(d.lastAt) >= d.window {
		d.last = ""
		d.shown = false
	}
}

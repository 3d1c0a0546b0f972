package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
)

type shown struct {
	id, message string
}

type recordingDisplay struct {
	mu    sync.Mutex
	shown []shown
}

func (r *recordingDisplay) Show(id, message string) {
	r.mu.Lock()
	r.shown = append(r.shown, shown{id, message})
	r.mu.Unlock()
}

func (r *recordingDisplay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

func newTestSink() (*Deduplicator, *recordingDisplay, *clock.MockClock) {
	clk := &clock.MockClock{CurrentTime: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rec := &recordingDisplay{}
	return New(Options{Display: rec, Clock: clk}), rec, clk
}

func TestWarn_IdenticalWithinWindowSuppressed(t *testing.T) {
	sink, rec, clk := newTestSink()

	sink.Warn("api", "Could not reach server, try again later.")
	clk.Advance(4 * time.Second)
	sink.Warn("api", "Could not reach server, try again later.")

	assert.Equal(t, 1, rec.count())
}

func TestWarn_IdenticalAfterWindowShownAgain(t *testing.T) {
	sink, rec, clk := newTestSink()

	sink.Warn("api", "boom")
	clk.Advance(5*time.Second + time.Millisecond)
	sink.Warn("api", "boom")

	assert.Equal(t, 2, rec.count())
}

func TestWarn_DistinctMessagesReplaceSlot(t *testing.T) {
	sink, rec, _ := newTestSink()

	sink.Warn("api", "first")
	sink.Warn("api", "second")
	sink.Warn("api", "first")

	assert.Equal(t, []shown{{"api", "first"}, {"api", "second"}, {"api", "first"}}, rec.shown)
	assert.Equal(t, "first", sink.Last())
}

func TestWarn_WindowRestartsWithReplacement(t *testing.T) {
	sink, rec, clk := newTestSink()

	sink.Warn("api", "a")
	clk.Advance(3 * time.Second)
	sink.Warn("api", "b")
	clk.Advance(3 * time.Second)
	// "a" is no longer the tracked message and "b" is still inside its window.
	sink.Warn("api", "b")

	assert.Equal(t, 2, rec.count())
}

func TestLast_ClearsAfterWindow(t *testing.T) {
	sink, _, clk := newTestSink()
	assert.Equal(t, "", sink.Last())

	sink.Warn("api", "boom")
	assert.Equal(t, "boom", sink.Last())

	clk.Advance(Window)
	assert.Equal(t, "", sink.Last())
}

func TestNew_Defaults(t *testing.T) {
	sink := New(Options{})
	assert.NotPanics(t, func() { sink.Warn("x", "no display configured") })
	assert.Equal(t, "no display configured", sink.Last())
}

func TestWarn_CustomWindow(t *testing.T) {
	clk := &clock.MockClock{CurrentTime: time.Unix(0, 0)}
	rec := &recordingDisplay{}
	sink := New(Options{Display: rec, Clock: clk, Window: time.Second})

	sink.Warn("a", "m")
	clk.Advance(time.Second)
	sink.Warn("a", "m")
	assert.Equal(t, 2, rec.count())
}

func TestWarn_ConcurrentIdenticalShownOnce(t *testing.T) {
	sink, rec, _ := newTestSink()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Warn("api", "same")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count())
}

package views

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

// PauseView drives the "pause blocking" countdown.
type PauseView struct {
	api   API
	clock clock.Clock

	mu     sync.Mutex
	status domain.PauseStatus
	at     time.Time
}

// NewPauseView creates a PauseView. A nil clock uses the wall clock.
func NewPauseView(api API, clk clock.Clock) *PauseView {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &PauseView{api: api, clock: clk}
}

// Pause suspends blocking for the given number of seconds.
func (v *PauseView) Pause(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf(errInvalidPause, seconds)
	}
	out := v.api.Post(ctx, "pause", domain.PauseRequest{Time: seconds}, domain.RequestOptions{})
	return v.apply("pause", out, domain.PauseStatus{Paused: true, TimeLeft: seconds})
}

// Resume re-enables blocking immediately.
func (v *PauseView) Resume(ctx context.Context) error {
	out := v.api.Post(ctx, "resume", nil, domain.RequestOptions{})
	return v.apply("resume", out, domain.PauseStatus{})
}

// Status reloads the current pause state from the server.
func (v *PauseView) Status(ctx context.Context) error {
	out := v.api.Get(ctx, "pause", domain.RequestOptions{})
	return v.apply("pause status", out, domain.PauseStatus{})
}

// apply records the status carried by a 2xx outcome, or fallback when the
// body was empty.
func (v *PauseView) apply(op string, out domain.Outcome, fallback domain.PauseStatus) error {
	if !out.OK() {
		return failed(op, out)
	}
	status := fallback
	if out.Payload != nil {
		if err := out.Decode(&status); err != nil {
			return fmt.Errorf(errDecodeFailed, op, err)
		}
	}
	v.mu.Lock()
	v.status = status
	v.at = v.clock.Now()
	v.mu.Unlock()
	return nil
}

// Paused reports whether blocking is suspended and time remains.
func (v *PauseView) Paused() bool {
	return v.TimeLeft() > 0
}

// TimeLeft counts down from the last reported timeLeft.
func (v *PauseView) TimeLeft() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.status.Paused {
		return 0
	}
	left := time.Duration(v.status.TimeLeft)*time.Second - v.clock.Now().Sub(v.at)
	if left < 0 {
		return 0
	}
	return left
}

// CanResume reports whether the "Resume Now" control should be offered.
func (v *PauseView) CanResume() bool {
	return v.Paused()
}

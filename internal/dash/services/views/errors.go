package views

import (
	"errors"
	"fmt"
	"time"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

var (
	// ErrRequestFailed wraps every non-2xx outcome surfaced by a view.
	ErrRequestFailed = errors.New("request failed")
	// ErrInvalidCredentials is returned by Login on 401.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidDomain is returned for names that are not fully qualified.
	ErrInvalidDomain = errors.New("invalid domain")
)

const (
	errOutcome       = "%s: status %d: %w"
	errOutcomeMsg    = "%s: status %d: %s: %w"
	errDecodeFailed  = "%s: decode response: %w"
	errInvalidPause  = "pause duration must be positive, got %d"
	errRateLimitText = "too many attempts, retry in %s"
)

// failed converts a non-2xx outcome into an error wrapping ErrRequestFailed.
func failed(op string, out domain.Outcome) error {
	if out.Message != "" {
		return fmt.Errorf(errOutcomeMsg, op, out.Status, out.Message, ErrRequestFailed)
	}
	return fmt.Errorf(errOutcome, op, out.Status, ErrRequestFailed)
}

// RateLimitedError is returned by Login on 429.
type RateLimitedError struct {
	RetryAfter time.Duration
	// RetryAt is when the countdown reaches zero.
	RetryAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf(errRateLimitText, e.RetryAfter)
}

// Remaining returns the countdown value at now, never negative.
func (e *RateLimitedError) Remaining(now time.Time) time.Duration {
	if d := e.RetryAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

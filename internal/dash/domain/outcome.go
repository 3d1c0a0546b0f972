package domain

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"
)

// ErrNoPayload is returned by Outcome.Decode when the response carried no JSON body.
var ErrNoPayload = errors.New("response has no payload")

// FailureKind classifies an Outcome for callers that branch on error category.
type FailureKind uint8

const (
	// FailureNone marks a 2xx outcome.
	FailureNone FailureKind = iota
	// FailureTransport means no response was received at all.
	FailureTransport
	// FailureAuth is a 401: the session expired or was never established.
	FailureAuth
	// FailureRateLimited is a 429 carrying retryAfterSeconds.
	FailureRateLimited
	// FailureValidation covers every other 4xx.
	FailureValidation
	// FailureServer covers 5xx responses that did arrive.
	FailureServer
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureAuth:
		return "auth"
	case FailureRateLimited:
		return "rate_limited"
	case FailureValidation:
		return "validation"
	case FailureServer:
		return "server"
	default:
		return "unknown"
	}
}

// RequestOptions are the per-call opt-outs of the API client. The zero value
// keeps the default behaviors: redirect on 401 and notify on failure.
type RequestOptions struct {
	// SkipAuthRedirect disables the login redirect on 401.
	SkipAuthRedirect bool
	// SkipErrorToast disables the notification for non-2xx responses.
	SkipErrorToast bool
	// SkipUnreachableToast disables the "server unreachable" notification.
	// Only decorative callers set it; everyone else must learn of outages.
	SkipUnreachableToast bool
}

// Outcome is the result of every gateway call. The gateway never returns an
// error; all failure modes are encoded here.
type Outcome struct {
	// Status is the HTTP status, or 500 when the server could not be reached.
	Status int
	// Payload is the raw JSON body, nil when the body was empty or not JSON.
	Payload json.RawMessage
	// Message is the user-facing error text for non-2xx outcomes.
	Message string
	// Unreachable is set when no response was received.
	Unreachable bool
}

// UnreachableOutcome returns the normalized outcome for a transport failure.
func UnreachableOutcome() Outcome {
	return Outcome{Status: http.StatusInternalServerError, Unreachable: true}
}

// OK reports a 2xx status.
func (o Outcome) OK() bool {
	return o.Status >= 200 && o.Status < 300
}

// Kind classifies the outcome.
func (o Outcome) Kind() FailureKind {
	switch {
	case o.Unreachable:
		return FailureTransport
	case o.OK():
		return FailureNone
	case o.Status == http.StatusUnauthorized:
		return FailureAuth
	case o.Status == http.StatusTooManyRequests:
		return FailureRateLimited
	case o.Status >= 500:
		return FailureServer
	default:
		return FailureValidation
	}
}

// Decode unmarshals the payload into v.
func (o Outcome) Decode(v any) error {
	if len(o.Payload) == 0 {
		return ErrNoPayload
	}
	return json.Unmarshal(o.Payload, v)
}

// RetryAfter returns the server-provided retry delay of a rate-limited outcome.
func (o Outcome) RetryAfter() (time.Duration, bool) {
	var body ErrorBody
	if o.Decode(&body) != nil || body.RetryAfterSeconds == nil {
		return 0, false
	}
	secs := *body.RetryAfterSeconds
	if secs < 0 || math.IsNaN(secs) {
		return 0, false
	}
	return time.Duration(math.Ceil(secs)) * time.Second, true
}

// ErrorBody is the failure envelope returned by the DNS service.
type ErrorBody struct {
	Error             string   `json:"error"`
	RetryAfterSeconds *float64 `json:"retryAfterSeconds,omitempty"`
}

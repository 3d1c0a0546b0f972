package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

const (
	errNotifierRequired  = "notifier is required"
	errNavigatorRequired = "navigator is required"
	errEncodeFailed      = "encode request body: %w"
	errBuildFailed       = "build request: %w"

	// UnreachableMessage is shown when no response was received.
	UnreachableMessage = "Could not reach server, try again later."
	fallbackMessage    = "Request failed with status %d"
	// TooLargeMessage is shown when a response body exceeds the read limit.
	TooLargeMessage = "Server response too large to display."

	// LoginPath is the redirect target when the session has expired.
	LoginPath = "/login"
	// ToastID is the notification slot used for every API warning.
	ToastID = "api"

	maxBodyBytes   = 4 * 1024 * 1024
	defaultTimeout = 10 * time.Second
)

// Notifier receives user-facing warnings.
type Notifier interface {
	Warn(id, message string)
}

// Navigator performs the full redirect to the login page on session expiry.
type Navigator interface {
	Redirect(path string)
}

// Options are the per-call opt-outs.
type Options = domain.RequestOptions

// ClientOptions configures a Client.
type ClientOptions struct {
	// required
	Origin    domain.Origin
	Notifier  Notifier
	Navigator Navigator
	// optional
	Jar        http.CookieJar
	HTTPClient *http.Client
	Logger     log.Logger
	Timeout    time.Duration
	// NewID generates request ids; defaults to uuid.NewString.
	NewID func() string
}

// Client issues requests to the DNS service API. No method ever returns an
// error: every failure is folded into the returned domain.Outcome, with a
// notification as a side effect.
type Client struct {
	origin    domain.Origin
	http      *http.Client
	notifier  Notifier
	navigator Navigator
	logger    log.Logger
	timeout   time.Duration
	newID     func() string
}

// NewClient creates a Client. Cookies from Jar accompany every request.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Notifier == nil {
		return nil, fmt.Errorf(errNotifierRequired)
	}
	if opts.Navigator == nil {
		return nil, fmt.Errorf(errNavigatorRequired)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	if opts.Jar != nil {
		hc.Jar = opts.Jar
	}
	return &Client{
		origin:    opts.Origin,
		http:      hc,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    opts.Logger.With(map[string]any{"component": "api"}),
		timeout:   opts.Timeout,
		newID:     opts.NewID,
	}, nil
}

// Origin returns the origin requests are sent to.
func (c *Client) Origin() domain.Origin {
	return c.origin
}

func (c *Client) Get(ctx context.Context, path string, opts Options) domain.Outcome {
	return c.Do(ctx, http.MethodGet, path, nil, opts)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts Options) domain.Outcome {
	return c.Do(ctx, http.MethodPost, path, body, opts)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts Options) domain.Outcome {
	return c.Do(ctx, http.MethodPut, path, body, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts Options) domain.Outcome {
	return c.Do(ctx, http.MethodPatch, path, body, opts)
}

// Delete accepts a nil body.
func (c *Client) Delete(ctx context.Context, path string, body any, opts Options) domain.Outcome {
	return c.Do(ctx, http.MethodDelete, path, body, opts)
}

// ensureContextDeadline adds the client's default timeout when ctx has none.
func (c *Client) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, nil
}

// Do issues one request. Within a call the steps run in a fixed order:
// status check, auth check, body parse, notification.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts Options) domain.Outcome {
	ctx, cancel := c.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}

	requestID := c.newID()
	fields := map[string]any{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}
	start := time.Now()

	req, err := c.newRequest(ctx, method, path, body, requestID)
	if err != nil {
		return c.unreachable(fields, err, opts)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.unreachable(fields, err, opts)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		fields["read_error"] = err.Error()
		raw = nil
	}
	if len(raw) > maxBodyBytes {
		return c.tooLarge(fields, resp.StatusCode, opts)
	}

	out := domain.Outcome{Status: resp.StatusCode}
	fields["status"] = resp.StatusCode
	fields["duration_ms"] = time.Since(start).Milliseconds()

	if out.OK() {
		out.Payload = parsePayload(raw)
		c.logger.Debug(fields, "API request completed")
		return out
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.SkipAuthRedirect {
		out.Payload = parsePayload(raw)
		out.Message = errorMessage(out.Payload, resp.StatusCode)
		c.logger.Info(fields, "API session expired")
		c.navigator.Redirect(LoginPath)
		return out
	}

	out.Payload = parsePayload(raw)
	out.Message = errorMessage(out.Payload, resp.StatusCode)
	fields["error"] = out.Message
	c.logger.Debug(fields, "API request failed")

	if !opts.SkipErrorToast {
		c.notifier.Warn(ToastID, out.Message)
	}
	return out
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, requestID string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf(errEncodeFailed, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.origin.APIURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf(errBuildFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// unreachable normalizes a failure before any response to (500, nil) and
// raises the single "server unreachable" notification.
func (c *Client) unreachable(fields map[string]any, err error, opts Options) domain.Outcome {
	fields["error"] = err.Error()
	c.logger.Warn(fields, "API server unreachable")
	if !opts.SkipUnreachableToast {
		c.notifier.Warn(ToastID, UnreachableMessage)
	}
	return domain.UnreachableOutcome()
}

// tooLarge reports a response whose body was cut at the read limit. The
// truncated body is discarded and the call fails with (500, nil) whatever
// the server's status was.
func (c *Client) tooLarge(fields map[string]any, status int, opts Options) domain.Outcome {
	fields["status"] = status
	fields["limit_bytes"] = maxBodyBytes
	c.logger.Warn(fields, "API response exceeds size limit")
	if !opts.SkipErrorToast {
		c.notifier.Warn(ToastID, TooLargeMessage)
	}
	return domain.Outcome{Status: http.StatusInternalServerError, Message: TooLargeMessage}
}

// parsePayload returns the body as JSON, or nil when it is empty, JSON null
// or not valid JSON.
func parsePayload(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || !json.Valid(trimmed) {
		return nil
	}
	return json.RawMessage(trimmed)
}

// errorMessage extracts the "error" field of a failure body. A bare JSON
// string body is used as-is; anything else yields the generic fallback.
func errorMessage(payload json.RawMessage, status int) string {
	if payload != nil {
		var body domain.ErrorBody
		if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
			return body.Error
		}
		var s string
		if err := json.Unmarshal(payload, &s); err == nil && s != "" {
			return s
		}
	}
	return fmt.Sprintf(fallbackMessage, status)
}

package views

import (
	"context"
	"net/http"
	"strings"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

const loginToastID = "login"

// LoginOptions configures a LoginView.
type LoginOptions struct {
	API      API
	Notifier Notifier
	Prefs    PrefsStore
	Clock    clock.Clock
	Logger   log.Logger
}

// LoginView authenticates against the DNS service. It handles 401 and 429
// itself, so both client opt-outs are set on the request.
type LoginView struct {
	api      API
	notifier Notifier
	prefs    PrefsStore
	clock    clock.Clock
	logger   log.Logger
}

// NewLoginView creates a LoginView. Prefs may be nil.
func NewLoginView(opts LoginOptions) *LoginView {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &LoginView{
		api:      opts.API,
		notifier: opts.Notifier,
		prefs:    opts.Prefs,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Login posts the credentials. On success the username is remembered when
// remember is set and forgotten otherwise.
func (v *LoginView) Login(ctx context.Context, username, password string, remember bool) error {
	username = strings.TrimSpace(username)
	out := v.api.Post(ctx, "login", domain.Credentials{Username: username, Password: password},
		domain.RequestOptions{SkipAuthRedirect: true, SkipErrorToast: true})

	switch {
	case out.OK():
		v.rememberUsername(username, remember)
		v.logger.Info(map[string]any{"username": username}, "Logged in")
		return nil
	case out.Status == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case out.Status == http.StatusTooManyRequests:
		retry, _ := out.RetryAfter()
		return &RateLimitedError{RetryAfter: retry, RetryAt: v.clock.Now().Add(retry)}
	case out.Unreachable:
		return failed("login", out)
	default:
		if v.notifier != nil {
			v.notifier.Warn(loginToastID, out.Message)
		}
		return failed("login", out)
	}
}

// RememberedUsername returns the stored username, or "".
func (v *LoginView) RememberedUsername() string {
	if v.prefs == nil {
		return ""
	}
	name, err := v.prefs.Username()
	if err != nil {
		v.logger.Debug(map[string]any{"error": err.Error()}, "Failed to read remembered username")
		return ""
	}
	return name
}

func (v *LoginView) rememberUsername(username string, remember bool) {
	if v.prefs == nil {
		return
	}
	if !remember {
		username = ""
	}
	if err := v.prefs.RememberUsername(username); err != nil {
		v.logger.Warn(map[string]any{"error": err.Error()}, "Failed to remember username")
	}
}

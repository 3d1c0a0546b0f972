// Package session owns the credentials shared by the HTTP client and the live
// channel: one cookie jar per origin, optionally persisted between runs, and
// the "session expired" redirect target.
package session

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

// apiScope is the path every API endpoint lives under.
const apiScope = "/api"

// CookieStore persists session cookies per origin.
type CookieStore interface {
	SaveCookies(origin string, cookies []*http.Cookie) error
	LoadCookies(origin string) ([]*http.Cookie, error)
	ClearCookies(origin string) error
}

// Session implements http.CookieJar by delegating to a replaceable inner jar,
// which lets an expired session be dropped without rebuilding the clients.
type Session struct {
	mu        sync.RWMutex
	jar       *cookiejar.Jar
	origin    domain.Origin
	store     CookieStore
	logger    log.Logger
	expired   bool
	redirects []string
}

// New builds a Session for origin. store may be nil for an in-memory session.
func New(origin domain.Origin, store CookieStore, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &Session{jar: jar, origin: origin, store: store, logger: logger}, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	jar := s.jar
	s.mu.RUnlock()
	return jar.Cookies(u)
}

// Restore loads persisted cookies for the origin into the jar.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	cookies, err := s.store.LoadCookies(s.origin.String())
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if len(cookies) > 0 {
		s.SetCookies(s.origin.URL(), cookies)
		s.logger.Debug(map[string]any{"origin": s.origin.String(), "count": len(cookies)}, "Session cookies restored")
	}
	return nil
}

// Persist saves the jar's cookies for the origin, typically after a login.
func (s *Session) Persist() error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	s.expired = false
	s.mu.Unlock()
	return s.store.SaveCookies(s.origin.String(), s.sessionCookies())
}

// sessionCookies lists the cookies sent to the API with the path each was
// scoped to. The jar does not report paths, so a cookie is taken to be
// scoped to "/" when the origin root also receives it and to "/api"
// otherwise; the latter is the default path of a cookie set by /api/login.
func (s *Session) sessionCookies() []*http.Cookie {
	atRoot := make(map[string]string)
	for _, c := range s.Cookies(s.origin.URL()) {
		atRoot[c.Name] = c.Value
	}

	apiURL := s.origin.URL()
	apiURL.Path = apiScope + "/"
	seen := make(map[string]bool)
	var out []*http.Cookie
	for _, c := range s.Cookies(apiURL) {
		path := apiScope
		if v, ok := atRoot[c.Name]; ok && v == c.Value {
			path = "/"
		}
		if key := path + "|" + c.Name; !seen[key] {
			seen[key] = true
			out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: path})
		}
	}
	return out
}

// Redirect is called by the API client on a 401. The session is marked
// expired, its cookies are dropped and the caller is expected to log in again.
func (s *Session) Redirect(path string) {
	jar, err := newJar()

	s.mu.Lock()
	s.expired = true
	s.redirects = append(s.redirects, path)
	if err == nil {
		s.jar = jar
	}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ClearCookies(s.origin.String()); err != nil {
			s.logger.Warn(map[string]any{"error": err.Error()}, "Failed to clear persisted cookies")
		}
	}
	s.logger.Warn(map[string]any{"redirect": path, "origin": s.origin.String()}, "Session expired, login required")
}

// Expired reports whether a redirect happened since the last Persist.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// Redirects returns every redirect target requested so far.
func (s *Session) Redirects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.redirects...)
}

var _ http.CookieJar = (*Session)(nil)

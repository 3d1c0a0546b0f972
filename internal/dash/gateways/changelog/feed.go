package changelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

const (
	errURLRequired   = "changelog url is required"
	errRequestFailed = "fetch changelog: %w"
	errBadStatus     = "fetch changelog: unexpected status %d"
	errDecodeFailed  = "decode changelog: %w"

	maxFeedBytes   = 1 << 20
	defaultTimeout = 5 * time.Second
)

// ErrEmptyFeed is returned when the feed names no version.
var ErrEmptyFeed = errors.New("changelog feed has no version")

// Options configures a Feed.
type Options struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Feed reads the latest release notes from the public changelog.
// It never sends dashboard cookies.
type Feed struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

// New creates a Feed for the given URL.
func New(opts Options) (*Feed, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf(errURLRequired)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Feed{url: opts.URL, http: opts.HTTPClient, timeout: opts.Timeout}, nil
}

// Latest fetches and decodes the feed.
func (f *Feed) Latest(ctx context.Context) (domain.ReleaseNotes, error) {
	var notes domain.ReleaseNotes

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return notes, fmt.Errorf(errRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return notes, fmt.Errorf(errRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return notes, fmt.Errorf(errBadStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&notes); err != nil {
		return notes, fmt.Errorf(errDecodeFailed, err)
	}
	if notes.Version == "" {
		return notes, ErrEmptyFeed
	}
	return notes, nil
}

package views

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

// DefaultPageSize caps the list when none is configured.
const DefaultPageSize = 50

// QueryLogOptions configures a QueryLogView.
type QueryLogOptions struct {
	API      API
	Seen     SeenIndex
	PageSize int
	Logger   log.Logger
}

// QueryLogView is a bounded, newest-first list fed by the paginated logs
// endpoint and the live stream. Both sources may deliver the same event in
// either order; the SeenIndex keeps each one listed once.
type QueryLogView struct {
	api      API
	seen     SeenIndex
	pageSize int
	logger   log.Logger

	mu      sync.Mutex
	entries []domain.QueryLogEvent
	page    int
	total   int
	stream  domain.StreamState
}

// NewQueryLogView creates a QueryLogView showing page 1.
func NewQueryLogView(opts QueryLogOptions) *QueryLogView {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Seen == nil {
		opts.Seen = noSeen{}
	}
	return &QueryLogView{
		api:      opts.API,
		seen:     opts.Seen,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
		page:     1,
	}
}

// Fetch loads one page and merges it into the list. Moving to a different
// page starts a fresh list.
func (v *QueryLogView) Fetch(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	out := v.api.Get(ctx, fmt.Sprintf("logs?page=%d&pageSize=%d", page, v.pageSize), domain.RequestOptions{})
	if !out.OK() {
		return failed("logs", out)
	}
	var p domain.LogPage
	if out.Payload != nil {
		if err := out.Decode(&p); err != nil {
			return fmt.Errorf(errDecodeFailed, "logs", err)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if page != v.page {
		v.entries = nil
		v.seen.Reset()
		v.page = page
	}
	v.total = p.Total
	for _, e := range p.Logs {
		if v.seen.Mark(e.Key()) {
			continue
		}
		v.entries = append(v.entries, e)
	}
	slices.SortStableFunc(v.entries, func(a, b domain.QueryLogEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	v.trimLocked()
	return nil
}

// Push prepends a live event. It reports whether the event was listed:
// duplicates are dropped, as are live events while an older page is shown.
func (v *QueryLogView) Push(e domain.QueryLogEvent) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page != 1 {
		return false
	}
	if v.seen.Mark(e.Key()) {
		return false
	}
	v.entries = slices.Insert(v.entries, 0, e)
	v.total++
	v.trimLocked()
	return true
}

// trimLocked evicts the oldest entries past the page-size cap.
func (v *QueryLogView) trimLocked() {
	if len(v.entries) > v.pageSize {
		clear(v.entries[v.pageSize:])
		v.entries = v.entries[:v.pageSize]
	}
}

// Entries returns the list, newest first.
func (v *QueryLogView) Entries() []domain.QueryLogEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.entries)
}

// Page returns the page currently shown.
func (v *QueryLogView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Total returns the server-side total, adjusted for live arrivals.
func (v *QueryLogView) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// SetStreamState records the live channel state; wire it as the channel's
// OnState callback.
func (v *QueryLogView) SetStreamState(s domain.StreamState) {
	v.mu.Lock()
	v.stream = s
	v.mu.Unlock()
	if s == domain.StreamClosedError {
		v.logger.Warn(map[string]any{"state": s.String()}, "Live query log disconnected")
	}
}

// Live reports whether the "live" indicator should be lit.
func (v *QueryLogView) Live() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stream.Live()
}

// noSeen is used when no index is supplied; it never reports duplicates.
type noSeen struct{}

func (noSeen) Mark(string) bool { return false }
func (noSeen) Reset()           {}

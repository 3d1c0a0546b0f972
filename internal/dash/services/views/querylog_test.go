package views

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dash/internal/dash/domain"
	"github.com/haukened/rr-dash/internal/dash/repos/seen"
)

var logBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func event(sec int, name string) domain.QueryLogEvent {
	return domain.QueryLogEvent{
		Timestamp: logBase.Add(time.Duration(sec) * time.Second),
		Domain:    name,
		Client:    "10.0.0.5",
		Type:      "A",
	}
}

func pageOutcome(t *testing.T, total int, events ...domain.QueryLogEvent) domain.Outcome {
	t.Helper()
	raw, err := json.Marshal(domain.LogPage{Logs: events, Total: total})
	require.NoError(t, err)
	return domain.Outcome{Status: 200, Payload: raw}
}

func newLogView(t *testing.T, api API, pageSize int) *QueryLogView {
	t.Helper()
	idx, err := seen.New(256, 0.01)
	require.NoError(t, err)
	return NewQueryLogView(QueryLogOptions{API: api, Seen: idx, PageSize: pageSize})
}

func domainsOf(events []domain.QueryLogEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Domain
	}
	return out
}

func TestQueryLogView_PushEvictsOldestPastCap(t *testing.T) {
	v := newLogView(t, &MockAPI{}, 3)
	for i := 0; i < 5; i++ {
		assert.True(t, v.Push(event(i, fmt.Sprintf("d%d.example", i))))
	}
	assert.Equal(t, []string{"d4.example", "d3.example", "d2.example"}, domainsOf(v.Entries()))
	assert.Equal(t, 5, v.Total())
}

func TestQueryLogView_FetchRequestsPage(t *testing.T) {
	api := &MockAPI{}
	api.On("Get", mock.Anything, "logs?page=1&pageSize=3", domain.RequestOptions{}).
		Return(pageOutcome(t, 42, event(3, "c.example"), event(2, "b.example"), event(1, "a.example")))

	v := newLogView(t, api, 3)
	require.NoError(t, v.Fetch(context.Background(), 0))
	assert.Equal(t, []string{"c.example", "b.example", "a.example"}, domainsOf(v.Entries()))
	assert.Equal(t, 42, v.Total())
	assert.Equal(t, 1, v.Page())
}

func TestQueryLogView_MergesEitherOrder(t *testing.T) {
	live := event(10, "live.example")

	// live first, then a fetch that already contains the same event
	api := &MockAPI{}
	api.On("Get", mock.Anything, mock.Anything, mock.Anything).
		Return(pageOutcome(t, 2, live, event(5, "old.example")))
	v := newLogView(t, api, 10)
	assert.True(t, v.Push(live))
	require.NoError(t, v.Fetch(context.Background(), 1))
	assert.Equal(t, []string{"live.example", "old.example"}, domainsOf(v.Entries()))

	// fetch first, then the live copy arrives
	v2 := newLogView(t, api, 10)
	require.NoError(t, v2.Fetch(context.Background(), 1))
	assert.False(t, v2.Push(live))
	assert.Equal(t, []string{"live.example", "old.example"}, domainsOf(v2.Entries()))
}

func TestQueryLogView_OtherPageIgnoresLive(t *testing.T) {
	api := &MockAPI{}
	api.On("Get", mock.Anything, "logs?page=2&pageSize=2", mock.Anything).
		Return(pageOutcome(t, 4, event(2, "b.example"), event(1, "a.example")))

	v := newLogView(t, api, 2)
	v.Push(event(9, "live.example"))
	require.NoError(t, v.Fetch(context.Background(), 2))

	assert.Equal(t, 2, v.Page())
	assert.Equal(t, []string{"b.example", "a.example"}, domainsOf(v.Entries()))
	assert.False(t, v.Push(event(10, "new.example")))
}

func TestQueryLogView_FetchFailureKeepsEntries(t *testing.T) {
	api := &MockAPI{}
	api.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(domain.UnreachableOutcome())

	v := newLogView(t, api, 5)
	v.Push(event(1, "a.example"))
	assert.ErrorIs(t, v.Fetch(context.Background(), 1), ErrRequestFailed)
	assert.Len(t, v.Entries(), 1)
}

func TestQueryLogView_StreamIndicator(t *testing.T) {
	v := NewQueryLogView(QueryLogOptions{API: &MockAPI{}})
	assert.False(t, v.Live())
	v.SetStreamState(domain.StreamOpen)
	assert.True(t, v.Live())
	v.SetStreamState(domain.StreamClosedError)
	assert.False(t, v.Live())
}

func TestQueryLogView_WithoutIndexKeepsDuplicates(t *testing.T) {
	v := NewQueryLogView(QueryLogOptions{API: &MockAPI{}})
	e := event(1, "a.example")
	assert.True(t, v.Push(e))
	assert.True(t, v.Push(e))
	assert.Len(t, v.Entries(), 2)
}

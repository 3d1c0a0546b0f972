package domain

import (
	"strconv"
	"time"
)

// QueryLogEvent is one resolved query as pushed by the live log stream and
// returned by the paginated logs endpoint.
type QueryLogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Domain    string    `json:"domain"`
	Client    string    `json:"client"`
	Type      string    `json:"type"`
	Blocked   bool      `json:"blocked"`
	Cached    bool      `json:"cached"`
	ElapsedMs float64   `json:"elapsedMs"`
	Upstream  string    `json:"upstream,omitempty"`
}

// Key identifies an event for merge de-duplication only. Events carry no
// server-side identity, so the key is composed from their contents.
func (e QueryLogEvent) Key() string {
	return strconv.FormatInt(e.Timestamp.UnixNano(), 10) + "|" + e.Client + "|" + e.Domain + "|" + e.Type
}

// PulseEvent marks which hops of a query path were active for a source IP.
type PulseEvent struct {
	Client   bool   `json:"client"`
	DNS      bool   `json:"dns"`
	Upstream bool   `json:"upstream"`
	IP       string `json:"ip"`
}

// Any reports whether at least one hop flag is set.
func (p PulseEvent) Any() bool {
	return p.Client || p.DNS || p.Upstream
}

package domain

import "time"

// Client is one network client as listed by the clients endpoint.
type Client struct {
	IP       string    `json:"ip"`
	Name     string    `json:"name,omitempty"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
	Queries  int64     `json:"queries"`
	Blocked  int64     `json:"blocked"`
	// AllDomains maps each queried domain to its query count.
	AllDomains map[string]int64 `json:"allDomains,omitempty"`
}

// ClientList is the payload of GET clients.
type ClientList struct {
	Clients []Client `json:"clients"`
}

// PauseRequest is the body of POST pause.
type PauseRequest struct {
	Time int `json:"time"`
}

// PauseStatus is returned by the pause endpoints.
type PauseStatus struct {
	Paused   bool `json:"paused"`
	TimeLeft int  `json:"timeLeft"`
}

// DomainEntry is the body used to add a domain to a list.
type DomainEntry struct {
	Domain string `json:"domain"`
}

// DomainList is the payload of GET whitelist.
type DomainList struct {
	Domains []string `json:"domains"`
}

// LogPage is one page of the query log.
type LogPage struct {
	Logs  []QueryLogEvent `json:"logs"`
	Total int             `json:"total"`
}

// Credentials is the body of POST login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ServerInfo is the payload of GET server.
type ServerInfo struct {
	Version string `json:"version"`
	Uptime  int64  `json:"uptime,omitempty"`
}

// ReleaseNotes describe the latest published release from the changelog feed.
type ReleaseNotes struct {
	Version     string    `json:"version"`
	Notes       string    `json:"notes"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}

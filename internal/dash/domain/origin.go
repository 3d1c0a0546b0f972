package domain

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultHost is used when no page location is available.
	DefaultHost = "localhost"
	// DefaultPort is used when neither an override nor the location carries a port.
	DefaultPort = 8080
)

// Origin is the resolved base of every API and stream URL.
// The zero value is not useful; build one with ResolveOrigin.
type Origin struct {
	scheme string
	host   string
	port   int
}

// ResolveOrigin derives the API origin from the page location and an optional
// port override injected by the server configuration.
//
// Scheme and hostname come from location. The port is portOverride when it is
// a valid port, else the location's own port, else DefaultPort. A missing or
// unusable location yields http://localhost:8080.
func ResolveOrigin(location string, portOverride int) Origin {
	o := Origin{scheme: "http", host: DefaultHost, port: DefaultPort}

	u, err := url.Parse(strings.TrimSpace(location))
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != "" {
		o.scheme = u.Scheme
		o.host = u.Hostname()
		if p, err := strconv.Atoi(u.Port()); err == nil && validPort(p) {
			o.port = p
		}
	}
	if validPort(portOverride) {
		o.port = portOverride
	}
	return o
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

// Secure reports whether the origin uses TLS.
func (o Origin) Secure() bool {
	return o.scheme == "https"
}

// Host returns host:port, bracketing IPv6 literals.
func (o Origin) Host() string {
	return net.JoinHostPort(o.host, strconv.Itoa(o.port))
}

// String returns the absolute origin, e.g. "https://dash.lan:8443".
func (o Origin) String() string {
	return o.scheme + "://" + o.Host()
}

// URL returns the origin as a parsed URL with an empty path.
func (o Origin) URL() *url.URL {
	return &url.URL{Scheme: o.scheme, Host: o.Host()}
}

// APIURL joins a caller-relative path (optionally with a query string)
// under the /api/ prefix.
func (o Origin) APIURL(relative string) string {
	return o.String() + "/api/" + strings.TrimLeft(relative, "/")
}

// StreamURL returns the WebSocket URL for a named stream; the scheme follows
// the origin (wss over https, ws otherwise).
func (o Origin) StreamURL(name string) string {
	scheme := "ws"
	if o.Secure() {
		scheme = "wss"
	}
	return scheme + "://" + o.Host() + "/api/" + strings.TrimLeft(name, "/")
}

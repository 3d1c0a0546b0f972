package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name     string
		location string
		port     int
		want     string
	}{
		{"empty location falls back", "", 0, "http://localhost:8080"},
		{"garbage location falls back", "::not a url", 0, "http://localhost:8080"},
		{"non-http scheme falls back", "file:///tmp/index.html", 0, "http://localhost:8080"},
		{"location without port uses default port", "http://dash.lan/", 0, "http://dash.lan:8080"},
		{"location port kept", "https://dash.lan:8443/settings", 0, "https://dash.lan:8443"},
		{"override wins", "https://dash.lan:8443/", 9000, "https://dash.lan:9000"},
		{"override on fallback host", "", 5380, "http://localhost:5380"},
		{"invalid override ignored", "http://dash.lan:81/", 70000, "http://dash.lan:81"},
		{"ipv6 literal", "http://[fd00::1]/", 0, "http://[fd00::1]:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := ResolveOrigin(tt.location, tt.port)
			assert.Equal(t, tt.want, o.String())
			u, err := url.Parse(o.String())
			require.NoError(t, err)
			assert.True(t, u.IsAbs())
		})
	}
}

func TestOrigin_APIURL(t *testing.T) {
	o := ResolveOrigin("http://dash.lan/", 8080)
	assert.Equal(t, "http://dash.lan:8080/api/clients", o.APIURL("clients"))
	assert.Equal(t, "http://dash.lan:8080/api/whitelist?domain=example.com", o.APIURL("whitelist?domain=example.com"))
	assert.Equal(t, "http://dash.lan:8080/api/logs", o.APIURL("/logs"))
}

func TestOrigin_StreamURL_MatchesScheme(t *testing.T) {
	plain := ResolveOrigin("http://dash.lan/", 0)
	secure := ResolveOrigin("https://dash.lan/", 0)

	assert.False(t, plain.Secure())
	assert.True(t, secure.Secure())
	assert.Equal(t, "ws://dash.lan:8080/api/logs/live", plain.StreamURL("logs/live"))
	assert.Equal(t, "wss://dash.lan:8080/api/pulse/live", secure.StreamURL("/pulse/live"))
}

func TestOrigin_URL(t *testing.T) {
	u := ResolveOrigin("https://dash.lan:8443/", 0).URL()
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "dash.lan:8443", u.Host)
}

package views

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

const (
	// DefaultReleaseTTL is how long cached release notes stay fresh.
	DefaultReleaseTTL = 6 * time.Hour

	releaseNotesKey = "release-notes"
	versionServer   = "server"
	versionLatest   = "latest"
)

// silentGet keeps the decorative server check off the notification sink,
// outages included.
var silentGet = domain.RequestOptions{SkipErrorToast: true, SkipUnreachableToast: true}

// VersionOptions configures a VersionView.
type VersionOptions struct {
	API       API
	Changelog ChangelogSource
	Prefs     PrefsStore
	Clock     clock.Clock
	TTL       time.Duration
	Logger    log.Logger
}

// VersionInfo is what the version widget renders. Empty fields mean
// "no data available".
type VersionInfo struct {
	Server          string
	Latest          *domain.ReleaseNotes
	UpdateAvailable bool
}

// VersionView is a decorative widget: every failure degrades to missing
// data and none is surfaced to the user.
type VersionView struct {
	api       API
	changelog ChangelogSource
	prefs     PrefsStore
	clock     clock.Clock
	ttl       time.Duration
	logger    log.Logger
}

// NewVersionView creates a VersionView. Changelog and Prefs may be nil.
func NewVersionView(opts VersionOptions) *VersionView {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultReleaseTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &VersionView{
		api:       opts.API,
		changelog: opts.Changelog,
		prefs:     opts.Prefs,
		clock:     opts.Clock,
		ttl:       opts.TTL,
		logger:    opts.Logger,
	}
}

// Check gathers the server version and the latest release.
func (v *VersionView) Check(ctx context.Context) VersionInfo {
	var info VersionInfo
	info.Server = v.serverVersion(ctx)
	if notes, ok := v.releaseNotes(ctx); ok {
		info.Latest = &notes
		info.UpdateAvailable = info.Server != "" && compareVersions(notes.Version, info.Server) > 0
	}
	return info
}

func (v *VersionView) serverVersion(ctx context.Context) string {
	out := v.api.Get(ctx, "server", silentGet)
	var srv domain.ServerInfo
	if out.OK() && out.Decode(&srv) == nil && srv.Version != "" {
		v.setVersion(versionServer, srv.Version)
		return srv.Version
	}
	v.logger.Debug(map[string]any{"status": out.Status}, "Server version unavailable")
	return v.lastVersion(versionServer)
}

func (v *VersionView) releaseNotes(ctx context.Context) (domain.ReleaseNotes, bool) {
	var notes domain.ReleaseNotes
	now := v.clock.Now()

	if v.prefs != nil {
		raw, ok, err := v.prefs.GetCached(releaseNotesKey, now)
		if err == nil && ok && json.Unmarshal(raw, &notes) == nil {
			return notes, true
		}
	}
	if v.changelog == nil {
		return notes, false
	}

	notes, err := v.changelog.Latest(ctx)
	if err != nil {
		v.logger.Debug(map[string]any{"error": err.Error()}, "Changelog unavailable")
		return notes, false
	}
	v.setVersion(versionLatest, notes.Version)
	if v.prefs != nil {
		if raw, err := json.Marshal(notes); err == nil {
			if err := v.prefs.PutCached(releaseNotesKey, raw, now.Add(v.ttl)); err != nil {
				v.logger.Debug(map[string]any{"error": err.Error()}, "Failed to cache release notes")
			}
		}
	}
	return notes, true
}

func (v *VersionView) setVersion(kind, version string) {
	if v.prefs == nil {
		return
	}
	if err := v.prefs.SetVersion(kind, version); err != nil {
		v.logger.Debug(map[string]any{"error": err.Error(), "kind": kind}, "Failed to store version")
	}
}

func (v *VersionView) lastVersion(kind string) string {
	if v.prefs == nil {
		return ""
	}
	version, err := v.prefs.Version(kind)
	if err != nil {
		return ""
	}
	return version
}

// compareVersions compares dotted numeric versions with an optional "v"
// prefix. Pre-release suffixes after '-' or '+' are ignored.
func compareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < max(len(pa), len(pb)); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func versionParts(s string) []int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	var parts []int
	for _, p := range strings.Split(s, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		parts = append(parts, n)
	}
	return parts
}

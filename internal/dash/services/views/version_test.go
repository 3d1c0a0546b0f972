package views

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dash/internal/dash/common/clock"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

var softGet = domain.RequestOptions{SkipErrorToast: true, SkipUnreachableToast: true}

func TestVersionView_FetchesAndCaches(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clk := &clock.MockClock{CurrentTime: now}
	api := &MockAPI{}
	feed := &MockChangelog{}
	prefs := &MockPrefs{}
	notes := domain.ReleaseNotes{Version: "v0.5.0", Notes: "new"}

	api.On("Get", mock.Anything, "server", softGet).Return(ok(`{"version":"0.4.2"}`))
	prefs.On("SetVersion", "server", "0.4.2").Return(nil)
	prefs.On("GetCached", releaseNotesKey, now).Return(nil, false, nil)
	feed.On("Latest", mock.Anything).Return(notes, nil).Once()
	prefs.On("SetVersion", "latest", "v0.5.0").Return(nil)
	prefs.On("PutCached", releaseNotesKey, mock.Anything, now.Add(time.Hour)).Return(nil).Once()

	v := NewVersionView(VersionOptions{API: api, Changelog: feed, Prefs: prefs, Clock: clk, TTL: time.Hour})
	info := v.Check(context.Background())

	assert.Equal(t, "0.4.2", info.Server)
	require.NotNil(t, info.Latest)
	assert.Equal(t, "v0.5.0", info.Latest.Version)
	assert.True(t, info.UpdateAvailable)
	feed.AssertExpectations(t)
	prefs.AssertExpectations(t)
}

func TestVersionView_UsesCachedNotes(t *testing.T) {
	clk := &clock.MockClock{CurrentTime: time.Unix(1_700_000_000, 0)}
	api := &MockAPI{}
	feed := &MockChangelog{}
	prefs := &MockPrefs{}
	raw, err := json.Marshal(domain.ReleaseNotes{Version: "v0.4.2"})
	require.NoError(t, err)

	api.On("Get", mock.Anything, "server", softGet).Return(ok(`{"version":"v0.4.2"}`))
	prefs.On("SetVersion", mock.Anything, mock.Anything).Return(nil)
	prefs.On("GetCached", releaseNotesKey, mock.Anything).Return(raw, true, nil)

	v := NewVersionView(VersionOptions{API: api, Changelog: feed, Prefs: prefs, Clock: clk})
	info := v.Check(context.Background())

	require.NotNil(t, info.Latest)
	assert.False(t, info.UpdateAvailable)
	feed.AssertNotCalled(t, "Latest", mock.Anything)
}

func TestVersionView_SwallowsFailures(t *testing.T) {
	api := &MockAPI{}
	feed := &MockChangelog{}
	prefs := &MockPrefs{}

	api.On("Get", mock.Anything, "server", softGet).Return(domain.UnreachableOutcome())
	prefs.On("Version", "server").Return("0.3.0", nil)
	prefs.On("GetCached", releaseNotesKey, mock.Anything).Return(nil, false, errors.New("corrupt"))
	feed.On("Latest", mock.Anything).Return(domain.ReleaseNotes{}, errors.New("offline"))

	v := NewVersionView(VersionOptions{API: api, Changelog: feed, Prefs: prefs})
	info := v.Check(context.Background())

	assert.Equal(t, "0.3.0", info.Server)
	assert.Nil(t, info.Latest)
	assert.False(t, info.UpdateAvailable)
}

func TestVersionView_NoData(t *testing.T) {
	api := &MockAPI{}
	api.On("Get", mock.Anything, "server", softGet).Return(fail(404, "", "Request failed with status 404"))

	info := NewVersionView(VersionOptions{API: api}).Check(context.Background())
	assert.Equal(t, VersionInfo{}, info)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v1.2.3", "1.2.3", 0},
		{"1.10.0", "1.9.9", 1},
		{"0.4", "0.4.1", -1},
		{"v2.0.0-rc1", "v2.0.0", 0},
		{"garbage", "0.0.1", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareVersions(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

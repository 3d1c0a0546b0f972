package views

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

func loadedWhitelist(t *testing.T, api *MockAPI, n *MockNotifier) *WhitelistView {
	t.Helper()
	api.On("Get", mock.Anything, "whitelist", domain.RequestOptions{}).
		Return(ok(`{"domains":["Example.com.","news.example.org","example.com"]}`)).Once()
	var notifier Notifier
	if n != nil {
		notifier = n
	}
	v := NewWhitelistView(api, notifier, nil)
	require.NoError(t, v.Load(context.Background()))
	return v
}

func TestWhitelistView_Load(t *testing.T) {
	v := loadedWhitelist(t, &MockAPI{}, nil)
	assert.Equal(t, []string{"example.com", "news.example.org"}, v.Domains())
	assert.True(t, v.Contains("EXAMPLE.com."))
}

func TestWhitelistView_RemoveFailureKeepsDomain(t *testing.T) {
	api := &MockAPI{}
	v := loadedWhitelist(t, api, nil)
	api.On("Delete", mock.Anything, "whitelist?domain=example.com", nil, domain.RequestOptions{}).
		Return(domain.UnreachableOutcome())

	err := v.Remove(context.Background(), "example.com")

	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.True(t, v.Contains("example.com"))
	assert.Len(t, v.Domains(), 2)
}

func TestWhitelistView_RemoveEscapesQuery(t *testing.T) {
	api := &MockAPI{}
	v := loadedWhitelist(t, api, nil)
	api.On("Delete", mock.Anything, "whitelist?domain=news.example.org%26x%3D1", nil, mock.Anything).
		Return(ok(""))

	require.NoError(t, v.Remove(context.Background(), "news.example.org&x=1"))
	api.AssertExpectations(t)
}

func TestWhitelistView_RemoveSuccess(t *testing.T) {
	api := &MockAPI{}
	v := loadedWhitelist(t, api, nil)
	api.On("Delete", mock.Anything, "whitelist?domain=example.com", nil, mock.Anything).Return(ok(""))

	require.NoError(t, v.Remove(context.Background(), "Example.COM"))
	assert.Equal(t, []string{"news.example.org"}, v.Domains())
}

func TestWhitelistView_Add(t *testing.T) {
	api := &MockAPI{}
	v := NewWhitelistView(api, nil, nil)
	api.On("Post", mock.Anything, "whitelist", domain.DomainEntry{Domain: "ads.example.net"}, domain.RequestOptions{}).
		Return(ok(`{}`)).Once()

	require.NoError(t, v.Add(context.Background(), " Ads.Example.NET. "))
	assert.Equal(t, []string{"ads.example.net"}, v.Domains())

	err := v.Add(context.Background(), "localhost")
	assert.ErrorIs(t, err, ErrInvalidDomain)
	api.AssertNumberOfCalls(t, "Post", 1)
}

func TestWhitelistView_AddRejected(t *testing.T) {
	api := &MockAPI{}
	v := NewWhitelistView(api, nil, nil)
	api.On("Post", mock.Anything, "whitelist", mock.Anything, mock.Anything).
		Return(fail(409, `{"error":"already allowed"}`, "already allowed"))

	err := v.Add(context.Background(), "ads.example.net")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Empty(t, v.Domains())
}

func TestWhitelistView_Import(t *testing.T) {
	api := &MockAPI{}
	n := &MockNotifier{}
	v := loadedWhitelist(t, api, n)

	quiet := domain.RequestOptions{SkipErrorToast: true}
	api.On("Post", mock.Anything, "whitelist", domain.DomainEntry{Domain: "one.example.com"}, quiet).Return(ok(""))
	api.On("Post", mock.Anything, "whitelist", domain.DomainEntry{Domain: "two.example.com"}, quiet).
		Return(fail(400, `{"error":"nope"}`, "nope"))
	n.On("Warn", importToastID, "Imported 1 of 2 domains").Once()

	input := "# import\nexample.com\n*.one.example.com\ntwo.example.com\nnot-a-domain\n"
	res, err := v.Import(context.Background(), strings.NewReader(input), FormatPlain)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Equal(t, []string{"one.example.com"}, res.Added)
	assert.Equal(t, []string{"example.com"}, res.Skipped)
	assert.Equal(t, []string{"two.example.com"}, res.Failed)
	assert.True(t, v.Contains("one.example.com"))
	assert.False(t, v.Contains("two.example.com"))
	n.AssertExpectations(t)
}

func TestWhitelistView_ImportHosts(t *testing.T) {
	api := &MockAPI{}
	v := NewWhitelistView(api, nil, nil)
	api.On("Post", mock.Anything, "whitelist", mock.Anything, mock.Anything).Return(ok(""))

	res, err := v.Import(context.Background(), strings.NewReader("0.0.0.0 a.example.com b.example.com\n"), FormatHosts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, res.Added)
}

func TestWhitelistView_ImportCancelled(t *testing.T) {
	api := &MockAPI{}
	v := NewWhitelistView(api, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := v.Import(ctx, strings.NewReader("a.example.com\n"), FormatPlain)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Added)
	api.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

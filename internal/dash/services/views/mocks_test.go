package views

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

// MockAPI implements API for testing
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Get(ctx context.Context, path string, opts domain.RequestOptions) domain.Outcome {
	args := m.Called(ctx, path, opts)
	return args.Get(0).(domain.Outcome)
}

func (m *MockAPI) Post(ctx context.Context, path string, body any, opts domain.RequestOptions) domain.Outcome {
	args := m.Called(ctx, path, body, opts)
	return args.Get(0).(domain.Outcome)
}

func (m *MockAPI) Delete(ctx context.Context, path string, body any, opts domain.RequestOptions) domain.Outcome {
	args := m.Called(ctx, path, body, opts)
	return args.Get(0).(domain.Outcome)
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Warn(id, message string) {
	m.Called(id, message)
}

// MockPrefs implements PrefsStore for testing
type MockPrefs struct {
	mock.Mock
}

func (m *MockPrefs) RememberUsername(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockPrefs) Username() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockPrefs) SetVersion(kind, version string) error {
	return m.Called(kind, version).Error(0)
}

func (m *MockPrefs) Version(kind string) (string, error) {
	args := m.Called(kind)
	return args.String(0), args.Error(1)
}

func (m *MockPrefs) PutCached(key string, value []byte, expiresAt time.Time) error {
	return m.Called(key, value, expiresAt).Error(0)
}

func (m *MockPrefs) GetCached(key string, now time.Time) ([]byte, bool, error) {
	args := m.Called(key, now)
	var raw []byte
	if v := args.Get(0); v != nil {
		raw = v.([]byte)
	}
	return raw, args.Bool(1), args.Error(2)
}

// MockChangelog implements ChangelogSource for testing
type MockChangelog struct {
	mock.Mock
}

func (m *MockChangelog) Latest(ctx context.Context) (domain.ReleaseNotes, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ReleaseNotes), args.Error(1)
}

// ok builds a 200 outcome with the given JSON body.
func ok(body string) domain.Outcome {
	out := domain.Outcome{Status: 200}
	if body != "" {
		out.Payload = []byte(body)
	}
	return out
}

// fail builds a non-2xx outcome the way the client would.
func fail(status int, body, message string) domain.Outcome {
	out := domain.Outcome{Status: status, Message: message}
	if body != "" {
		out.Payload = []byte(body)
	}
	return out
}

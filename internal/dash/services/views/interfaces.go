package views

import (
	"context"
	"time"

	"github.com/haukened/rr-dash/internal/dash/domain"
)

// API is the subset of the HTTP verb client used by the views.
type API interface {
	Get(ctx context.Context, path string, opts domain.RequestOptions) domain.Outcome
	Post(ctx context.Context, path string, body any, opts domain.RequestOptions) domain.Outcome
	Delete(ctx context.Context, path string, body any, opts domain.RequestOptions) domain.Outcome
}

// Notifier shows a user-facing warning in a stable slot.
type Notifier interface {
	Warn(id, message string)
}

// PrefsStore holds the small set of local preferences the views remember.
type PrefsStore interface {
	RememberUsername(name string) error
	Username() (string, error)
	SetVersion(kind, version string) error
	Version(kind string) (string, error)
	PutCached(key string, value []byte, expiresAt time.Time) error
	GetCached(key string, now time.Time) ([]byte, bool, error)
}

// SeenIndex de-duplicates events that arrive from both the paginated fetch
// and the live stream.
type SeenIndex interface {
	// Mark records key and reports whether it was already present.
	Mark(key string) bool
	Reset()
}

// ChangelogSource fetches the latest published release.
type ChangelogSource interface {
	Latest(ctx context.Context) (domain.ReleaseNotes, error)
}

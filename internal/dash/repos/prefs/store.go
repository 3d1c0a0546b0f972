package prefs

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketPrefs   = []byte("prefs")
	bucketCookies = []byte("cookies")
	bucketCache   = []byte("cache")
)

const (
	keyUsername      = "username"
	keyVersionPrefix = "version."
)

// ErrCorruptEntry is returned when a cached value is shorter than its expiry header.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Store keeps the dashboard's small local state in a bbolt file: remembered
// username, last seen version strings, session cookies and expiring cache
// entries such as release notes.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path and ensures buckets exist.
// The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketPrefs, bucketCookies, bucketCache} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) put(bucket []byte, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
}

// get copies the value out of the transaction; bbolt values are only valid inside it.
func (s *Store) get(bucket []byte, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	return out, out != nil, err
}

func (s *Store) del(bucket []byte, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// RememberUsername stores the login name; an empty name forgets it.
func (s *Store) RememberUsername(name string) error {
	if name == "" {
		return s.del(bucketPrefs, keyUsername)
	}
	return s.put(bucketPrefs, keyUsername, []byte(name))
}

// Username returns the remembered login name, or "".
func (s *Store) Username() (string, error) {
	v, _, err := s.get(bucketPrefs, keyUsername)
	return string(v), err
}

// SetVersion records the last known version string for kind ("server", "latest").
func (s *Store) SetVersion(kind, version string) error {
	return s.put(bucketPrefs, keyVersionPrefix+kind, []byte(version))
}

// Version returns the last known version string for kind.
func (s *Store) Version(kind string) (string, error) {
	v, _, err := s.get(bucketPrefs, keyVersionPrefix+kind)
	return string(v), err
}

// PutCached stores value under key until expiresAt.
// Layout: 8-byte big-endian unix expiry followed by the value.
func (s *Store) PutCached(key string, value []byte, expiresAt time.Time) error {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt.Unix()))
	copy(buf[8:], value)
	return s.put(bucketCache, key, buf)
}

// GetCached returns a cached value that has not expired at now.
// Expired entries are deleted and reported as a miss.
func (s *Store) GetCached(key string, now time.Time) ([]byte, bool, error) {
	raw, ok, err := s.get(bucketCache, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(raw) < 8 {
		return nil, false, ErrCorruptEntry
	}
	expires := time.Unix(int64(binary.BigEndian.Uint64(raw[:8])), 0)
	if !now.Before(expires) {
		return nil, false, s.del(bucketCache, key)
	}
	return raw[8:], true, nil
}

// storedCookie is the persisted subset of a session cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path,omitempty"`
}

// SaveCookies replaces the persisted cookies for origin.
func (s *Store) SaveCookies(origin string, cookies []*http.Cookie) error {
	out := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return s.put(bucketCookies, origin, data)
}

// LoadCookies returns the persisted cookies for origin.
func (s *Store) LoadCookies(origin string) ([]*http.Cookie, error) {
	raw, ok, err := s.get(bucketCookies, origin)
	if err != nil || !ok {
		return nil, err
	}
	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: path})
	}
	return cookies, nil
}

// ClearCookies drops the persisted cookies for origin.
func (s *Store) ClearCookies(origin string) error {
	return s.del(bucketCookies, origin)
}

// Stats reports the number of keys per bucket.
func (s *Store) Stats() map[string]int {
	st := make(map[string]int, 3)
	_ = s.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketPrefs, bucketCookies, bucketCache} {
			st[string(b)] = tx.Bucket(b).Stats().KeyN
		}
		return nil
	})
	return st
}

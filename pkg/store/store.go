package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/snapshot"
)

// DefaultKey is the well-known slot holding the latest submission.
const DefaultKey = "formSubmissionData"

var (
	// ErrEmptyKey is returned when a backend is addressed with a blank key.
	ErrEmptyKey = errors.New("store: key is required")
	// ErrNoBackend is returned when a Store has no backend configured.
	ErrNoBackend = errors.New("store: backend is not configured")
)

// Backend is a key/value slot holder. Get reports ok=false when the key has
// never been written.
type Backend interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
}

// Option customises a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			s.key = trimmed
		}
	}
}

// Store persists the latest snapshot under a single key. Each Save overwrites
// the previous snapshot.
type Store struct {
	backend Backend
	key     string
}

// New constructs a Store over backend.
func New(backend Backend, options ...Option) *Store {
	s := &Store{backend: backend, key: DefaultKey}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	if s == nil {
		return DefaultKey
	}
	return s.key
}

// Save encodes snap and overwrites the slot.
func (s *Store) Save(ctx context.Context, snap snapshot.Snapshot) error {
	if s == nil || s.backend == nil {
		return ErrNoBackend
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("store: write %q: %w", s.key, err)
	}
	return nil
}

// Load reads the slot. It returns nil and no error when nothing has been
// saved. A JSON array, as written by append-style writers, yields its last
// element.
func (s *Store) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if s == nil || s.backend == nil {
		return nil, ErrNoBackend
	}
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("store: read %q: %w", s.key, err)
	}
	trimmed := bytes.TrimSpace(data)
	if !ok || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("store: decode %q: %w", s.key, err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		trimmed = items[len(items)-1]
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("store: decode %q: %w", s.key, err)
	}
	return &snap, nil
}

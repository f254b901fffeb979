package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/snapshot"
)

const (
	// DefaultField is the snapshot entry compared against the entered value.
	DefaultField = "UserID"
	// DefaultNextPath is where an authorized visitor continues.
	DefaultNextPath = "/account/create"
	// DefaultBannerTTL is how long a mismatch banner stays visible.
	DefaultBannerTTL = 3000 * time.Millisecond
	// DefaultMismatchMessage is shown when the identifier does not match.
	DefaultMismatchMessage = "The account entered does not match our records."
)

// ErrNoLoader is returned when the gate has no snapshot source.
var ErrNoLoader = errors.New("gate: snapshot loader is not configured")

// Loader reads the persisted snapshot; nil means nothing was stored.
type Loader interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
}

// Banner is a timed inline error. It is visible from ShownAt until ShownAt+TTL.
type Banner struct {
	Message string        `json:"message"`
	ShownAt time.Time     `json:"shownAt"`
	TTL     time.Duration `json:"-"`
}

// ExpiresAt returns the instant the banner is removed.
func (b Banner) ExpiresAt() time.Time {
	return b.ShownAt.Add(b.TTL)
}

// Visible reports whether the banner is still displayed at now.
func (b Banner) Visible(now time.Time) bool {
	return !now.Before(b.ShownAt) && now.Before(b.ExpiresAt())
}

// Decision is the outcome of an authorization attempt.
type Decision struct {
	Allowed    bool    `json:"allowed"`
	Redirect   string  `json:"redirect,omitempty"`
	ClearInput bool    `json:"clearInput,omitempty"`
	Banner     *Banner `json:"banner,omitempty"`
}

// Option customises a Gate.
type Option func(*Gate)

// WithField overrides the compared snapshot entry.
func WithField(field string) Option {
	return func(g *Gate) {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			g.field = trimmed
		}
	}
}

// WithNextPath overrides the continuation path.
func WithNextPath(path string) Option {
	return func(g *Gate) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			g.nextPath = trimmed
		}
	}
}

// WithBannerTTL overrides how long mismatch banners stay visible.
func WithBannerTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.bannerTTL = ttl
		}
	}
}

// WithMismatchMessage overrides the banner text.
func WithMismatchMessage(message string) Option {
	return func(g *Gate) {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			g.message = trimmed
		}
	}
}

// WithClock injects the time source used to stamp banners.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// Gate authorizes continuation by comparing an entered identifier with the
// one recorded in the persisted snapshot. There is no lockout: a denied
// attempt can be retried immediately.
type Gate struct {
	loader    Loader
	field     string
	nextPath  string
	bannerTTL time.Duration
	message   string
	now       func() time.Time
}

// New constructs a Gate reading snapshots from loader.
func New(loader Loader, options ...Option) *Gate {
	g := &Gate{
		loader:    loader,
		field:     DefaultField,
		nextPath:  DefaultNextPath,
		bannerTTL: DefaultBannerTTL,
		message:   DefaultMismatchMessage,
		now:       time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Field returns the compared snapshot entry name.
func (g *Gate) Field() string { return g.field }

// NextPath returns the continuation path.
func (g *Gate) NextPath() string { return g.nextPath }

// Authorize compares entered with the stored identifier using exact,
// case-sensitive equality. A missing snapshot or identifier denies.
func (g *Gate) Authorize(ctx context.Context, entered string) (Decision, error) {
	if g == nil || g.loader == nil {
		return Decision{}, ErrNoLoader
	}
	snap, err := g.loader.Load(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("gate: load snapshot: %w", err)
	}

	if snap != nil {
		if stored, ok := snap.String(g.field); ok && stored != "" && stored == entered {
			return Decision{
				Allowed:    true,
				Redirect:   g.nextPath,
				ClearInput: true,
			}, nil
		}
	}

	return Decision{
		Banner: &Banner{
			Message: g.message,
			ShownAt: g.now(),
			TTL:     g.bannerTTL,
		},
	}, nil
}

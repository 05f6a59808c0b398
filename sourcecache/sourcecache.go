// Package sourcecache caches raw template sources in front of any fetcher.Fetcher.
// Stores are keyed by location: an in-memory store with TTL and a Redis store
// let several managers or processes share fetched sources.
package sourcecache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/skosovsky/tplmgr/fetcher"
)

// ErrStore indicates a store read or write failed. The Fetcher treats read failures as misses.
var ErrStore = errors.New("sourcecache: store operation failed")

// Store keeps raw sources by key.
type Store interface {
	// Get returns the value and true on a hit. A miss is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}

// Fetcher serves locations from a Store and falls back to the wrapped fetcher.Fetcher on a miss.
type Fetcher struct {
	next   fetcher.Fetcher
	store  Store
	logger *slog.Logger
}

var _ fetcher.Fetcher = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for store failures. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a Fetcher that consults store before next. Panics if next or store is nil.
func New(next fetcher.Fetcher, store Store, opts ...Option) *Fetcher {
	if next == nil {
		panic("sourcecache: next Fetcher must not be nil")
	}
	if store == nil {
		panic("sourcecache: Store must not be nil")
	}
	f := &Fetcher{next: next, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the stored source for location or fetches and stores it.
// Store errors never fail the fetch; they are logged at warn level.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	val, ok, err := f.store.Get(ctx, location)
	if err != nil {
		f.logger.Warn("source cache read failed", "location", location, "err", err)
	} else if ok {
		return []byte(val), nil
	}
	data, err := f.next.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := f.store.Set(ctx, location, string(data)); err != nil {
		f.logger.Warn("source cache write failed", "location", location, "err", err)
	}
	return data, nil
}

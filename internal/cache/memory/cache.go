// Package memory provides in-process implementations of the cache, lock,
// rate limit and signal bus interfaces. Standalone mode and tests run on
// these instead of Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// RoundCache is a mutex-guarded map cache with per-entry expiry.
type RoundCache struct {
	mu      sync.Mutex
	entries map[string]roundEntry
	ttl     time.Duration
}

type roundEntry struct {
	round   domain.Round
	expires time.Time
}

// NewRoundCache creates a RoundCache with the given TTL. A non-positive TTL
// disables expiry.
func NewRoundCache(ttl time.Duration) *RoundCache {
	return &RoundCache{entries: make(map[string]roundEntry), ttl: ttl}
}

func (rc *RoundCache) Set(ctx context.Context, round domain.Round) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry := roundEntry{round: round}
	if rc.ttl > 0 {
		entry.expires = time.Now().Add(rc.ttl)
	}
	rc.entries[round.ID] = entry
	return nil
}

func (rc *RoundCache) Get(ctx context.Context, id string) (domain.Round, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry, ok := rc.entries[id]
	if !ok {
		return domain.Round{}, domain.ErrNotFound
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		delete(rc.entries, id)
		return domain.Round{}, domain.ErrNotFound
	}
	return entry.round, nil
}

func (rc *RoundCache) Invalidate(ctx context.Context, id string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.entries, id)
	return nil
}

var _ domain.RoundCache = (*RoundCache)(nil)

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/altmarkets/parimutuel/internal/domain"
)

const roundTTL = 5 * time.Minute

// RoundCache implements domain.RoundCache using JSON-serialized rounds with
// a short TTL. Settled rounds are immutable, so a stale entry can only lag
// behind an open round's running totals; every mutation path invalidates the
// entry before returning.
type RoundCache struct {
	rdb *redis.Client
}

// NewRoundCache creates a RoundCache backed by the given Client.
func NewRoundCache(c *Client) *RoundCache {
	return &RoundCache{rdb: c.Underlying()}
}

func roundKey(id string) string { return "round:" + id }

// Set stores a round in the cache with a 5-minute TTL.
func (rc *RoundCache) Set(ctx context.Context, round domain.Round) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("redis: marshal round %s: %w", round.ID, err)
	}
	if err := rc.rdb.Set(ctx, roundKey(round.ID), data, roundTTL).Err(); err != nil {
		return fmt.Errorf("redis: set round %s: %w", round.ID, err)
	}
	return nil
}

// Get retrieves a round by ID. It returns domain.ErrNotFound when the key
// does not exist.
func (rc *RoundCache) Get(ctx context.Context, id string) (domain.Round, error) {
	data, err := rc.rdb.Get(ctx, roundKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Round{}, domain.ErrNotFound
		}
		return domain.Round{}, fmt.Errorf("redis: get round %s: %w", id, err)
	}

	var round domain.Round
	if err := json.Unmarshal(data, &round); err != nil {
		return domain.Round{}, fmt.Errorf("redis: unmarshal round %s: %w", id, err)
	}
	return round, nil
}

// Invalidate removes a round from the cache.
func (rc *RoundCache) Invalidate(ctx context.Context, id string) error {
	if err := rc.rdb.Del(ctx, roundKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate round %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.RoundCache = (*RoundCache)(nil)

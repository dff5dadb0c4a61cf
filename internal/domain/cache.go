package domain

import (
	"context"
	"time"
)

// RoundCache provides fast round lookups in front of the RoundStore.
type RoundCache interface {
	Set(ctx context.Context, round Round) error
	Get(ctx context.Context, id string) (Round, error)
	Invalidate(ctx context.Context, id string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides exclusive per-round locking so each invocation owns
// the round/bet pair it touches for its whole duration, even with multiple
// service replicas.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage is a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus is the append-only notification sink: market events are
// published for external observers after the owning mutation commits.
// The core never consumes its own notifications.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// Settlement and claim handlers run on every instance behind the load
// balancer, so the mutual exclusion they need has to live in Redis rather
// than in process memory. A lock is a single key holding a random token;
// only the holder of that token may release it, which the Lua script below
// enforces by comparing before deleting.
const unlockLua = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// LockManager hands out TTL-bounded distributed locks keyed by name.
// Locks expire on their own, so a crashed holder never wedges a round.
type LockManager struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

var _ domain.LockManager = (*LockManager)(nil)

func NewLockManager(client *Client) *LockManager {
	return &LockManager{
		rdb:      client.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
	}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire takes the named lock for at most ttl. It does not block or
// retry: if another holder is active it returns domain.ErrLockHeld and the
// caller decides whether the operation is safe to skip or must be retried.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	name := lockKey(key)

	ok, err := m.rdb.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var released bool
	unlock := func() {
		if released {
			return
		}
		released = true
		// The caller's context is often already cancelled by the time the
		// deferred unlock runs, so release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.unlockSc.Run(rctx, m.rdb, []string{name}, token).Err()
	}
	return unlock, nil
}

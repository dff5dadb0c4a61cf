package memory

import (
	"context"
	"sync"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// LockManager implements per-key exclusive locks for a single process. The
// TTL doubles as an upper bound on how long a crashed holder can block
// others, matching the distributed variant's behavior.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewLockManager creates an empty in-process lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]time.Time)}
}

// Acquire takes the lock for key, or returns domain.ErrLockHeld when another
// holder has it and its TTL has not lapsed.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if expires, held := lm.locks[key]; held && time.Now().Before(expires) {
		return nil, domain.ErrLockHeld
	}
	lm.locks[key] = time.Now().Add(ttl)

	released := false
	unlock := func() {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		if released {
			return
		}
		released = true
		delete(lm.locks, key)
	}
	return unlock, nil
}

var _ domain.LockManager = (*LockManager)(nil)

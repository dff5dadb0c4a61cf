package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

func TestRoundCache_SetGetInvalidate(t *testing.T) {
	rc := NewRoundCache(time.Minute)
	ctx := context.Background()

	round := domain.Round{ID: "r1", Asset: "BTC", OpenPrice: 50_000}
	require.NoError(t, rc.Set(ctx, round))

	got, err := rc.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, round, got)

	require.NoError(t, rc.Invalidate(ctx, "r1"))
	_, err = rc.Get(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLockManager_Exclusive(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "round:r1", time.Minute)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, "round:r1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	unlock()
	unlock() // second call is a no-op

	unlock2, err := lm.Acquire(ctx, "round:r1", time.Minute)
	require.NoError(t, err)
	unlock2()
}

func TestSignalBus_StreamReadAfterID(t *testing.T) {
	sb := NewSignalBus(100)
	ctx := context.Background()

	require.NoError(t, sb.StreamAppend(ctx, "events", []byte("a")))
	require.NoError(t, sb.StreamAppend(ctx, "events", []byte("b")))
	require.NoError(t, sb.StreamAppend(ctx, "events", []byte("c")))

	msgs, err := sb.StreamRead(ctx, "events", "1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("b"), msgs[0].Payload)
	assert.Equal(t, []byte("c"), msgs[1].Payload)
}

func TestSignalBus_IDsMonotonicAcrossTrim(t *testing.T) {
	sb := NewSignalBus(3)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c", "d"} {
		require.NoError(t, sb.StreamAppend(ctx, "events", []byte(p)))
	}

	// A reader caught up through the 4th message must still see the 5th
	// even though trimming has dropped the oldest entries.
	require.NoError(t, sb.StreamAppend(ctx, "events", []byte("e")))
	msgs, err := sb.StreamRead(ctx, "events", "4", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "5", msgs[0].ID)
	assert.Equal(t, []byte("e"), msgs[0].Payload)
}

func TestSignalBus_PublishSubscribe(t *testing.T) {
	sb := NewSignalBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := sb.Subscribe(ctx, "events")
	require.NoError(t, err)

	require.NoError(t, sb.Publish(ctx, "events", []byte("hello")))

	select {
	case payload := <-ch:
		assert.Equal(t, []byte("hello"), payload)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "ip:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "ip:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys are unaffected.
	ok, err = rl.Allow(ctx, "ip:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

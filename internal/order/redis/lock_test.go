package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/logger"
)

// setupTestRedis creates a Redis client using miniredis for testing
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &Redis{
		Client:    client,
		TTL:       30 * time.Second,
		Retries:   2,
		RetryWait: 5 * time.Millisecond,
		Logger:    logger.Discard(),
	}, mr
}

func TestLockVenues_AllOrNothing(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	locked, err := r.LockVenue(ctx, "hall-b", "existing")
	require.NoError(t, err)
	require.True(t, locked)

	locked, err = r.LockVenues(ctx, []string{"hall-c", "hall-a", "hall-b"}, "new")
	require.NoError(t, err)
	assert.False(t, locked, "Should not lock any venue if one is held")

	for _, id := range []string{"hall-a", "hall-c"} {
		held, err := r.IsVenueLocked(ctx, id)
		require.NoError(t, err)
		assert.False(t, held, "%s should have been rolled back", id)
	}

	val, err := r.Client.Get(ctx, "venue_lock:hall-b").Result()
	require.NoError(t, err)
	assert.Equal(t, "existing", val)
}

func TestUnlockVenues_OnlyOwnToken(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	ids := []string{"hall-a", "hall-b"}

	locked, err := r.LockVenues(ctx, ids, "order-1")
	require.NoError(t, err)
	require.True(t, locked)

	require.NoError(t, r.UnlockVenues(ctx, ids, "order-2"))
	held, err := r.IsVenueLocked(ctx, "hall-a")
	require.NoError(t, err)
	assert.True(t, held, "foreign token must not release the lock")

	require.NoError(t, r.UnlockVenues(ctx, ids, "order-1"))
	held, err = r.IsVenueLocked(ctx, "hall-a")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestAcquire_RetriesThenBusy(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Acquire(ctx, []string{"hall-a"}, "first"))
	err := r.Acquire(ctx, []string{"hall-a", "hall-a"}, "second")
	assert.ErrorIs(t, err, ErrVenueBusy)

	require.NoError(t, r.Release(ctx, []string{"hall-a"}, "first"))
	assert.NoError(t, r.Acquire(ctx, []string{"hall-a"}, "second"))
}

func TestAcquire_SucceedsAfterHolderReleases(t *testing.T) {
	r, _ := setupTestRedis(t)
	r.Retries = 20
	ctx := context.Background()

	require.NoError(t, r.Acquire(ctx, []string{"hall-a"}, "holder"))
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Release(ctx, []string{"hall-a"}, "holder")
	}()
	assert.NoError(t, r.Acquire(ctx, []string{"hall-a"}, "waiter"))
}

func TestLockExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Acquire(ctx, []string{"hall-a"}, "crashed"))
	mr.FastForward(31 * time.Second)

	held, err := r.IsVenueLocked(ctx, "hall-a")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestConcurrentAcquire_MutualExclusion(t *testing.T) {
	r, _ := setupTestRedis(t)
	r.Retries = 200
	r.RetryWait = time.Millisecond
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := fmt.Sprintf("order-%d", n)
			if err := r.Acquire(ctx, []string{"hall-a", "hall-b"}, token); err != nil {
				return
			}
			cur := atomic.AddInt32(&inside, 1)
			for {
				prev := atomic.LoadInt32(&maxInside)
				if cur <= prev || atomic.CompareAndSwapInt32(&maxInside, prev, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			r.Release(ctx, []string{"hall-a", "hall-b"}, token)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside, "only one holder at a time")
}

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "dispatch:key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "dispatch:key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew, "second mark within TTL is a duplicate")

	clock.Advance(time.Minute)
	isNew, err = store.MarkProcessed(ctx, "dispatch:key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew, "an expired key counts as new")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	seen, err := store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkProcessed(ctx, "event-1", 10*time.Second)
	require.NoError(t, err)
	seen, err = store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, seen)

	clock.Advance(11 * time.Second)
	seen, err = store.IsProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Size())

	clock.Advance(time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Size())

	seen, _ := store.IsProcessed(ctx, "long")
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_ConcurrentMarkHasOneWinner(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(context.Background(), "same-key", time.Minute)
			assert.NoError(t, err)
			if isNew {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

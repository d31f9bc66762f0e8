package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func sampleTables() *dataset.TableSet {
	return &dataset.TableSet{
		Orders: dataset.Orders{{OrderID: "O1", CustomerID: "C1", Status: dataset.OrderStatusDelivered}},
	}
}

func TestInMemoryDatasetCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryDatasetCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ts := sampleTables()
	require.NoError(t, c.Set(ctx, "fp-1", ts))

	got, ok, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, ts, got)
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.Delete(ctx, "fp-1"))
	_, ok, _ = c.Get(ctx, "fp-1")
	assert.False(t, ok)
	assert.Equal(t, "memory", c.Backend())
}

func TestInMemoryDatasetCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)}
	c := NewInMemoryDatasetCache(time.Minute, WithClock(clock.Now))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", sampleTables()))

	clock.Advance(59 * time.Second)
	_, ok, _ := c.Get(ctx, "fp")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "fp")
	assert.False(t, ok, "entries expire at the TTL")

	assert.Equal(t, 1, c.Size())
	c.cleanup()
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryDatasetCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewInMemoryDatasetCache(0, WithClock(clock.Now))
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "fp", sampleTables()))
	clock.Advance(24 * 365 * time.Hour)
	c.cleanup()

	_, ok, _ := c.Get(context.Background(), "fp")
	assert.True(t, ok)
}

func TestInMemoryDatasetCache_CloseIsIdempotent(t *testing.T) {
	c := NewInMemoryDatasetCache(time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestInMemoryDatasetCache_Concurrent(t *testing.T) {
	c := NewInMemoryDatasetCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []string{"a", "b"}[i%2]
			_ = c.Set(ctx, key, sampleTables())
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 2, c.Size())
}

func TestNoopDatasetCache(t *testing.T) {
	c := NoopDatasetCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fp", sampleTables()))
	_, ok, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "none", c.Backend())
}

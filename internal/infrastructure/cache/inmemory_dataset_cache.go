package cache

import (
	"context"
	"sync"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/dataset"
)

// entry is a cached table set with its expiry
type entry struct {
	tables    *dataset.TableSet
	expiresAt time.Time
}

// InMemoryDatasetCache keeps enriched table sets in process memory.
// It suits single-instance deployments and tests.
type InMemoryDatasetCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryDatasetCache
type InMemoryOption func(*InMemoryDatasetCache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) InMemoryOption {
	return func(c *InMemoryDatasetCache) {
		c.now = now
	}
}

// NewInMemoryDatasetCache creates the cache and starts its cleanup goroutine.
// A zero ttl keeps entries until they are deleted.
func NewInMemoryDatasetCache(ttl time.Duration, opts ...InMemoryOption) *InMemoryDatasetCache {
	c := &InMemoryDatasetCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)
	go c.cleanupLoop()
	return c
}

// Get returns the table set stored under key
func (c *InMemoryDatasetCache) Get(ctx context.Context, key string) (*dataset.TableSet, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return nil, false, nil
	}
	return e.tables, true, nil
}

// Set stores ts under key
func (c *InMemoryDatasetCache) Set(ctx context.Context, key string, ts *dataset.TableSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{tables: ts}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

// Delete removes key
func (c *InMemoryDatasetCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Backend names the implementation
func (c *InMemoryDatasetCache) Backend() string {
	return "memory"
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryDatasetCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryDatasetCache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *InMemoryDatasetCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries
func (c *InMemoryDatasetCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries, expired ones included until cleanup
func (c *InMemoryDatasetCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ dashboard.DatasetCache = (*InMemoryDatasetCache)(nil)

// NoopDatasetCache never stores anything
type NoopDatasetCache struct{}

func (NoopDatasetCache) Get(context.Context, string) (*dataset.TableSet, bool, error) {
	return nil, false, nil
}
func (NoopDatasetCache) Set(context.Context, string, *dataset.TableSet) error { return nil }
func (NoopDatasetCache) Delete(context.Context, string) error                  { return nil }
func (NoopDatasetCache) Backend() string                                       { return "none" }
func (NoopDatasetCache) Close() error                                          { return nil }

var _ dashboard.DatasetCache = NoopDatasetCache{}

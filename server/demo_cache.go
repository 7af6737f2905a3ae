package server

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/skortchmar/livewire/electricity"
)

// DemoFetcher performs a full demo-account login and collection cycle.
type DemoFetcher func(ctx context.Context) (*electricity.Result, error)

// demoCache serves demo dashboard data from a TTL cache. Concurrent misses
// collapse into a single upstream collection via singleflight, so the demo
// account is never logged in twice at once.
type demoCache struct {
	fetch DemoFetcher
	ttl   time.Duration
	group singleflight.Group

	mu        sync.Mutex
	result    *electricity.Result
	fetchedAt time.Time
}

func newDemoCache(fetch DemoFetcher, ttl time.Duration) *demoCache {
	return &demoCache{fetch: fetch, ttl: ttl}
}

func (c *demoCache) Get(ctx context.Context) (*electricity.Result, error) {
	if c.fetch == nil {
		return nil, errors.New("demo mode is not configured")
	}

	c.mu.Lock()
	if c.result != nil && time.Since(c.fetchedAt) < c.ttl {
		cached := c.result
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("demo-data", func() (any, error) {
		result, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.result = result
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*electricity.Result), nil
}

package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/redis"
)

// seriesCache is the in-process fetch cache, keyed by identifier and
// window. A Redis cache, when enabled, backs it across processes.
type seriesCache struct {
	mu      sync.RWMutex
	entries map[string]contracts.TimeSeries
	remote  *redis.Cache
}

func newSeriesCache(remote *redis.Cache) *seriesCache {
	return &seriesCache{
		entries: make(map[string]contracts.TimeSeries),
		remote:  remote,
	}
}

func cacheKey(identifier string, from, to time.Time) string {
	return redis.SeriesKey(identifier, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// get checks the local map first, then Redis. Redis hits are promoted
// into the local map.
func (c *seriesCache) get(ctx context.Context, key string) (contracts.TimeSeries, bool) {
	c.mu.RLock()
	ts, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return ts, true
	}

	if c.remote != nil {
		var remote contracts.TimeSeries
		if hit, err := c.remote.Get(ctx, key, &remote); err == nil && hit {
			c.mu.Lock()
			c.entries[key] = remote
			c.mu.Unlock()
			return remote, true
		}
	}
	return contracts.TimeSeries{}, false
}

// put stores locally and writes through to Redis.
func (c *seriesCache) put(ctx context.Context, key string, ts contracts.TimeSeries) {
	c.mu.Lock()
	c.entries[key] = ts
	c.mu.Unlock()

	if c.remote != nil {
		_ = c.remote.Set(ctx, key, ts, redis.TTLSeries)
	}
}

// size returns the number of locally cached windows.
func (c *seriesCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// clear drops all local entries.
func (c *seriesCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]contracts.TimeSeries)
	c.mu.Unlock()
}

package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"golang.org/x/sync/singleflight"
)

type cachedEntry struct {
	record    domain.PackageRecord
	expiresAt time.Time
}

// CachedLookup wraps a slower Lookup (e.g. one backed by a remote
// campaign API) with a TTL cache.
type CachedLookup struct {
	next Lookup
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[int]cachedEntry
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCachedLookup(next Lookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:    next,
		ttl:     ttl,
		entries: make(map[int]cachedEntry),
	}
}

func (c *CachedLookup) GetPackage(ctx context.Context, packageID int) (*domain.PackageRecord, error) {
	c.mu.RLock()
	entry, ok := c.entries[packageID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		record := entry.record
		return &record, nil
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := c.sfg.Do(fmt.Sprint(packageID), func() (interface{}, error) {
		record, errGet := c.next.GetPackage(ctx, packageID)
		if errGet != nil {
			return nil, errGet
		}

		c.mu.Lock()
		c.entries[packageID] = cachedEntry{record: *record, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()

		return record, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.PackageRecord), nil
}

// Invalidate drops every cached entry so the next lookup reads through
// to the wrapped catalog. A price refresh calls this automatically via
// the Invalidator interface; callers that swap the underlying catalog
// with Static.Replace outside a refresh must call it themselves.
func (c *CachedLookup) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[int]cachedEntry)
	c.mu.Unlock()
}

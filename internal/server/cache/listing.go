// Package cache keeps recently served note listing pages in memory.
//
// All pages live under the single key common.ListingCacheKey, so one
// Invalidate call drops every cached page at once.
package cache

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type pages map[string]*models.NotePage

type ListingCache struct {
	mu    sync.Mutex
	store *gocache.Cache
	gen   uint64
}

// NewListingCache creates a cache whose entries expire after ttl. A zero
// ttl keeps entries until invalidated.
func NewListingCache(ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &ListingCache{
		store: gocache.New(ttl, 10*time.Minute),
	}
}

func pageKey(page, perPage int) string {
	return fmt.Sprintf("%d:%d", page, perPage)
}

func (c *ListingCache) Get(page, perPage int) (*models.NotePage, bool) {
	v, ok := c.store.Get(common.ListingCacheKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(pages)[pageKey(page, perPage)]
	return p, ok
}

// Generation identifies the current cache contents. It changes on every
// Invalidate.
func (c *ListingCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Set stores p if no invalidation happened since gen was read, so a page
// computed before a write cannot repopulate the cache after it. The stored
// map is replaced, never mutated.
func (c *ListingCache) Set(gen uint64, page, perPage int, p *models.NotePage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	next := pages{}
	if v, ok := c.store.Get(common.ListingCacheKey); ok {
		for k, cached := range v.(pages) {
			next[k] = cached
		}
	}
	next[pageKey(page, perPage)] = p

	c.store.Set(common.ListingCacheKey, next, gocache.DefaultExpiration)
}

func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.store.Delete(common.ListingCacheKey)
}

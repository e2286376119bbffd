package fetchers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	body    json.RawMessage
	expires time.Time
}

// CachedSource keeps successful upstream documents for a fixed TTL, keyed by
// URL. Absent results are not cached. Concurrent misses for the same URL
// share one upstream call.
type CachedSource struct {
	next     Source
	ttl      time.Duration
	observer Observer
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedSource wraps next with a TTL cache
func NewCachedSource(next Source, ttl time.Duration, observer Observer) *CachedSource {
	if observer == nil {
		observer = nopObserver{}
	}
	return &CachedSource{
		next:     next,
		ttl:      ttl,
		observer: observer,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

// Fetch serves ep from the cache when fresh, otherwise from the wrapped source
func (c *CachedSource) Fetch(ctx context.Context, ep Endpoint) Result {
	if body, ok := c.lookup(ep.URL); ok {
		c.observer.CacheLookup(ep.Name, true)
		return Present(body)
	}
	c.observer.CacheLookup(ep.Name, false)

	v, _, _ := c.group.Do(ep.URL, func() (interface{}, error) {
		if body, ok := c.lookup(ep.URL); ok {
			return Present(body), nil
		}
		// the fill is shared by every waiter, so it must not die with the
		// first caller's request; the client timeout still bounds it
		res := c.next.Fetch(context.WithoutCancel(ctx), ep)
		if body, ok := res.Value(); ok {
			c.store(ep.URL, body)
		}
		return res, nil
	})
	return v.(Result)
}

// Purge drops every cached document
func (c *CachedSource) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len reports the number of cached documents, fresh or not
func (c *CachedSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CachedSource) lookup(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.body, true
}

func (c *CachedSource) store(key string, body json.RawMessage) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{body: body, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

package products

import (
	"sync"
	"time"
)

const defaultPendingLimit = 1000

// Cache is one seller's product list. Change events that arrive while a load
// is outstanding are kept and replayed over the loaded list, so an event can
// never be lost to a list fetched before it happened. Only the most recently
// begun load may replace the list.
type Cache struct {
	mu           sync.RWMutex
	items        []Product
	loaded       bool
	loadedAt     time.Time
	stale        bool
	issued       uint64
	settled      uint64
	pending      []Change
	dropped      bool
	pendingLimit int
	revision     uint64
	nowTime      func() time.Time
}

func newCache(nowTime func() time.Time, pendingLimit int) *Cache {
	return &Cache{nowTime: nowTime, pendingLimit: pendingLimit}
}

// NewCache creates an empty, unloaded cache.
func NewCache() *Cache {
	return newCache(time.Now, defaultPendingLimit)
}

// BeginLoad starts a load and returns its generation.
func (c *Cache) BeginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// CompleteLoad installs list as the loaded state when gen is the latest
// issued generation, then replays events received since loading began. It
// reports whether the list was installed.
func (c *Cache) CompleteLoad(gen uint64, list []Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.issued {
		return false
	}

	items := activeOnly(list)
	for _, ch := range c.pending {
		items = c.reconcileVersioned(items, ch)
	}
	c.items = items
	c.pending = nil
	c.settled = gen
	c.loaded = true
	// A list replayed after an overflow is missing events; the next read refetches.
	c.stale = c.dropped
	c.dropped = false
	c.loadedAt = c.nowTime()
	c.revision++
	return true
}

// AbortLoad settles a failed load without changing the cached list. Until a
// first load succeeds, buffered events are kept for the next attempt.
func (c *Cache) AbortLoad(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.issued {
		return
	}
	c.settled = gen
	if c.loaded {
		c.pending = nil
		c.dropped = false
	}
}

// Apply reconciles one change-feed event. It reports whether the event
// reached a loaded list; events seen before the first load only wait for it.
func (c *Cache) Apply(ch Change) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading() {
		if len(c.pending) >= c.pendingLimit {
			// The replay can no longer be trusted.
			c.pending = c.pending[1:]
			c.dropped = true
			c.stale = true
		}
		c.pending = append(c.pending, ch)
	}
	if !c.loaded {
		return false
	}

	before := c.items
	c.items = c.reconcileVersioned(c.items, ch)
	if !sameSlice(before, c.items) {
		c.revision++
	}
	return true
}

// loading reports whether the latest begun load has not yet settled. Events
// that arrive before any load has begun are kept for it too.
func (c *Cache) loading() bool {
	return !c.loaded || c.issued != c.settled
}

// reconcileVersioned skips INSERT and UPDATE events older than the cached row.
func (c *Cache) reconcileVersioned(items []Product, ch Change) []Product {
	if ch.Type == EventInsert || ch.Type == EventUpdate {
		if i := indexOf(items, ch.Product.ID); i >= 0 {
			cached, incoming := items[i].updatedTime(), ch.Product.updatedTime()
			if !cached.IsZero() && !incoming.IsZero() && incoming.Before(cached) {
				return items
			}
		}
	}
	return Reconcile(items, ch)
}

// Contains reports whether the loaded list holds id.
func (c *Cache) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return indexOf(c.items, id) >= 0
}

// Snapshot returns a copy of the list and whether a load has completed.
func (c *Cache) Snapshot() ([]Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Product(nil), c.items...), c.loaded
}

// Fresh reports whether the list is loaded, not stale and younger than maxAge.
func (c *Cache) Fresh(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded && !c.stale && c.nowTime().Sub(c.loadedAt) < maxAge
}

// MarkStale forces the next read to reload, e.g. after change events may have been missed.
func (c *Cache) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

// Revision increases whenever the visible list changes.
func (c *Cache) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

func sameSlice(a, b []Product) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

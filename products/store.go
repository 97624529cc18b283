package products

import (
	"sync"
	"time"
)

// Store holds one Cache per seller and routes change-feed events to them.
type Store struct {
	mu           sync.RWMutex
	caches       map[string]*Cache
	nowTime      func() time.Time
	pendingLimit int
}

type StoreOption func(*Store)

func WithNowTime(nowTime func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowTime
	}
}

// WithPendingLimit bounds how many events a cache keeps while a load is outstanding.
func WithPendingLimit(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.pendingLimit = n
		}
	}
}

func NewStore(options ...StoreOption) *Store {
	s := &Store{
		caches:       make(map[string]*Cache),
		nowTime:      time.Now,
		pendingLimit: defaultPendingLimit,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// For returns the seller's cache, creating it on first use.
func (s *Store) For(sellerID string) *Cache {
	s.mu.RLock()
	c, ok := s.caches[sellerID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[sellerID]; ok {
		return c
	}
	c = newCache(s.nowTime, s.pendingLimit)
	s.caches[sellerID] = c
	return c
}

// Apply routes ch to the owning seller's cache. Sellers without a cache have
// nothing to reconcile. A row without a seller id (deletes usually carry only
// the key) is applied wherever it cannot admit a foreign product: DELETE goes
// to every cache and UPDATE only to caches already holding the id.
func (s *Store) Apply(ch Change) int {
	if sellerID := ch.Product.SellerID; sellerID != "" {
		s.mu.RLock()
		c, ok := s.caches[sellerID]
		s.mu.RUnlock()
		if ok && c.Apply(ch) {
			return 1
		}
		return 0
	}

	applied := 0
	for _, c := range s.all() {
		switch ch.Type {
		case EventDelete:
		case EventUpdate:
			if !c.Contains(ch.Product.ID) {
				continue
			}
		default:
			continue
		}
		if c.Apply(ch) {
			applied++
		}
	}
	return applied
}

// MarkAllStale marks every cache stale, e.g. after the change feed reconnects.
func (s *Store) MarkAllStale() {
	for _, c := range s.all() {
		c.MarkStale()
	}
}

// Len returns the number of seller caches.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.caches)
}

func (s *Store) all() []*Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Cache, 0, len(s.caches))
	for _, c := range s.caches {
		out = append(out, c)
	}
	return out
}

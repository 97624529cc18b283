package token

import (
	"sync"
	"time"
)

// RevokedTokenCache remembers signed-out sign-ins until their tokens expire.
type RevokedTokenCache interface {
	Add(key string, exp time.Time) error
	IsRevoked(key string) bool
	Cleanup() // Remove expired entries
}

// InMemoryRevokedTokenCache is a RevokedTokenCache local to the process.
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	nowFunc func() time.Time
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowFunc: time.Now,
	}
}

func (c *InMemoryRevokedTokenCache) Add(key string, exp time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[key] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exp, exists := c.revoked[key]
	return exists && c.nowFunc().Before(exp)
}

func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	for key, exp := range c.revoked {
		if !now.Before(exp) {
			delete(c.revoked, key)
		}
	}
}

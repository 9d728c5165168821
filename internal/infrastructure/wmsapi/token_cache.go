package wmsapi

import (
	"sync"
	"time"
)

// TokenCache holds the bearer token of one Client.
// It is owned by the client instance; separate clients never share a token.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	fetchedAt time.Time
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token
func (c *TokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != ""
}

// Set stores a freshly fetched token
func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.fetchedAt = time.Now()
}

// Invalidate drops the cached token
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.fetchedAt = time.Time{}
}

// Age returns how long ago the current token was fetched, zero when empty
func (c *TokenCache) Age() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return 0
	}
	return time.Since(c.fetchedAt)
}

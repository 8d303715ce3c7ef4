package videos

import (
	"context"
	"sync"
	"time"
)

// ReadURLSigner issues pre-signed read URLs.
type ReadURLSigner interface {
	GetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type urlEntry struct {
	url        string
	reuseUntil time.Time
	expiresAt  time.Time
}

// CachingURLSigner memoises pre-signed read URLs per key. Entries are reused for half of the
// URL lifetime so a cached URL always has at least that much validity left.
type CachingURLSigner struct {
	base ReadURLSigner
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]urlEntry
}

// NewCachingURLSigner wraps base, signing URLs valid for ttl.
func NewCachingURLSigner(base ReadURLSigner, ttl time.Duration) *CachingURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachingURLSigner{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]urlEntry),
	}
}

// TTL reports the lifetime of the URLs the signer requests.
func (c *CachingURLSigner) TTL() time.Duration {
	return c.ttl
}

// URL returns a cached URL for key when it is still fresh, otherwise it signs a new one. The
// returned duration is how long the URL remains valid from now.
func (c *CachingURLSigner) URL(ctx context.Context, key string) (string, time.Duration, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.reuseUntil) {
		return entry.url, entry.expiresAt.Sub(now), nil
	}

	url, err := c.base.GetURL(ctx, key, c.ttl)
	if err != nil {
		return "", 0, err
	}

	c.mu.Lock()
	c.pruneLocked(now)
	c.items[key] = urlEntry{url: url, reuseUntil: now.Add(c.ttl / 2), expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return url, c.ttl, nil
}

// pruneLocked drops entries that can no longer be reused. c.mu must be held.
func (c *CachingURLSigner) pruneLocked(now time.Time) {
	for key, entry := range c.items {
		if !now.Before(entry.reuseUntil) {
			delete(c.items, key)
		}
	}
}

// Forget drops any cached URL for key.
func (c *CachingURLSigner) Forget(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

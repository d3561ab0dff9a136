package data

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is an in-memory TTL cache. Expired entries are dropped by a
// background sweep until Stop is called.
type Cache[T any] struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry[T]
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewCache starts a cache whose entries live for ttl (1 hour when ttl <= 0).
func NewCache[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &Cache[T]{
		store: make(map[string]*cacheEntry[T]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

// Get retrieves a value if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	return entry.value, true
}

// Set stores a value.
func (c *Cache[T]) Set(key string, value T) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry[T]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Len is the number of stored entries, expired ones included until swept.
func (c *Cache[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop ends the background sweep.
func (c *Cache[T]) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[T]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache[T]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}


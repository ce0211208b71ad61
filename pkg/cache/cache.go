package cache

import (
	"sync"
	"time"
)

// Cache is a typed key/value store with per-entry TTL.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	// GetOrSet calls compute only on a miss; compute errors are not cached.
	GetOrSet(key string, ttl time.Duration, compute func() (V, error)) (V, error)
	Delete(key string)
	Keys() []string
	Size() int
	Stop()
}

type item[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// InMemoryCache is a mutex-guarded map swept by a background goroutine.
type InMemoryCache[V any] struct {
	mu       sync.RWMutex
	items    map[string]*item[V]
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewInMemoryCache starts the sweep goroutine; call Stop to end it.
func NewInMemoryCache[V any](cleanupInterval time.Duration) *InMemoryCache[V] {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &InMemoryCache[V]{
		items: make(map[string]*item[V]),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.startCleanup(cleanupInterval)
	return c
}

func (c *InMemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || it.expired(c.now()) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value. ttl <= 0 keeps it until deleted.
func (c *InMemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

func (c *InMemoryCache[V]) setLocked(key string, value V, ttl time.Duration) {
	now := c.now()
	it := &item[V]{value: value}
	if ttl > 0 {
		it.expiresAt = now.Add(ttl)
	}
	c.items[key] = it
}

func (c *InMemoryCache[V]) GetOrSet(key string, ttl time.Duration, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok && !it.expired(c.now()) {
		return it.value, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.setLocked(key, v, ttl)
	return v, nil
}

func (c *InMemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Keys returns the unexpired keys in no particular order.
func (c *InMemoryCache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]string, 0, len(c.items))
	for k, it := range c.items {
		if !it.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Size includes expired entries not yet swept.
func (c *InMemoryCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *InMemoryCache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemoryCache[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryCache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
		}
	}
}

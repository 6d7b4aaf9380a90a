package dedupe

import (
	"sync"
	"time"
)

type mark struct {
	key string
	at  time.Time
}

// Cache remembers job keys that were already handed downstream, bounded by
// capacity and a ttl window. Oldest marks are evicted first.
type Cache struct {
	mu       sync.Mutex
	marks    map[string]time.Time
	order    []mark
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		marks:    make(map[string]time.Time, capacity),
		order:    make([]mark, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Seen reports whether key was marked inside the ttl window.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.marks[key]
	return ok && c.now().Sub(at) < c.ttl
}

// Mark records keys as handed downstream.
func (c *Cache) Mark(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, key := range keys {
		c.marks[key] = now
		c.order = append(c.order, mark{key: key, at: now})
	}
	c.evict(now)
}

// Len returns the number of live marks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(c.now())
	return len(c.marks)
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.marks) > c.capacity || !c.order[0].at.After(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		// a re-marked key has a newer entry further down the queue
		if at, ok := c.marks[oldest.key]; ok && at.Equal(oldest.at) {
			delete(c.marks, oldest.key)
		}
	}
}

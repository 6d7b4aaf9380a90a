// Package cache holds the single aggregate snapshot served to readers.
package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/DeafMist/job-radar/backend/internal/models"
)

// DefaultTTL is how long a stored snapshot is served before it counts as stale.
const DefaultTTL = 15 * time.Minute

// State describes the freshness of the slot.
type State string

const (
	StateEmpty State = "empty"
	StateFresh State = "fresh"
	StateStale State = "stale"
)

// Status is a point-in-time view of the slot for health reporting.
type Status struct {
	State      State
	SnapshotID string
	FetchedAt  time.Time
	Age        time.Duration
	Jobs       int
}

// Cache is a single slot. Writes are last-writer-wins; readers never block on
// an aggregation in progress because the slot is swapped only on Store.
type Cache struct {
	mu     sync.RWMutex
	snap   models.Snapshot
	filled bool
	ttl    time.Duration
	now    func() time.Time
}

// New creates an empty cache.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Read returns a copy of the stored snapshot while it is fresh. The boolean is
// false when the slot is empty or its age reached the ttl.
func (c *Cache) Read() (models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.filled || c.now().Sub(c.snap.FetchedAt) >= c.ttl {
		return models.Snapshot{}, false
	}
	out := c.snap
	out.Jobs = cloneJobs(c.snap.Jobs)
	return out, true
}

// Store replaces the slot. FetchedAt is reset to now.
func (c *Cache) Store(snap models.Snapshot) models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.Jobs = cloneJobs(snap.Jobs)
	snap.FetchedAt = c.now()
	c.snap = snap
	c.filled = true

	out := snap
	out.Jobs = cloneJobs(snap.Jobs)
	return out
}

// cloneJobs deep-copies records so neither producers nor readers share
// backing arrays or pointers with the slot.
func cloneJobs(jobs []models.JobRecord) []models.JobRecord {
	if jobs == nil {
		return nil
	}
	out := make([]models.JobRecord, len(jobs))
	for i, job := range jobs {
		job.Skills = slices.Clone(job.Skills)
		if job.RelevanceScore != nil {
			score := *job.RelevanceScore
			job.RelevanceScore = &score
		}
		out[i] = job
	}
	return out
}

// Status reports freshness without copying the jobs.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.filled {
		return Status{State: StateEmpty}
	}
	age := c.now().Sub(c.snap.FetchedAt)
	state := StateFresh
	if age >= c.ttl {
		state = StateStale
	}
	return Status{
		State:      state,
		SnapshotID: c.snap.ID,
		FetchedAt:  c.snap.FetchedAt,
		Age:        age,
		Jobs:       len(c.snap.Jobs),
	}
}

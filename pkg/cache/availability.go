// Package cache memoizes slot grids and booked-time lookups per
// (resource, date) for a short TTL. Writes are idempotent and last-writer
// wins, so concurrent readers may safely recompute the same entry on a miss;
// no locking beyond the map guard is needed.
package cache

import (
	"sync"
	"time"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// DefaultTTL is how long an entry stays valid without explicit invalidation.
const DefaultTTL = 5 * time.Minute

// DefaultInvalidationWindowDays is the rolling window, from "now", whose
// entries are dropped when a resource's rules, exclusions or month flags
// change.
const DefaultInvalidationWindowDays = 30

type key struct {
	resourceID string
	date       string // "2006-01-02"
}

// Entry holds the memoized grid and booked times for one (resource, date).
type Entry struct {
	Slots  []model.TimeOfDay
	Booked []model.TimeOfDay

	storedAt time.Time
}

// AvailabilityCache is a TTL map guarded by a RWMutex.
type AvailabilityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[key]Entry

	now func() time.Time // override for tests
}

// New creates a cache with the given TTL; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AvailabilityCache{
		ttl:     ttl,
		entries: make(map[key]Entry),
		now:     time.Now,
	}
}

// Get returns the entry for (resource, date) if present and fresh.
func (c *AvailabilityCache) Get(resourceID string, date time.Time) (Entry, bool) {
	k := key{resourceID: resourceID, date: date.Format("2006-01-02")}

	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, k)
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Put stores the grid and booked times for (resource, date), replacing any
// existing entry.
func (c *AvailabilityCache) Put(resourceID string, date time.Time, slots, booked []model.TimeOfDay) {
	k := key{resourceID: resourceID, date: date.Format("2006-01-02")}

	c.mu.Lock()
	c.entries[k] = Entry{Slots: slots, Booked: booked, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops the entry for one (resource, date).
func (c *AvailabilityCache) Invalidate(resourceID string, date time.Time) {
	k := key{resourceID: resourceID, date: date.Format("2006-01-02")}

	c.mu.Lock()
	delete(c.entries, k)
	c.mu.Unlock()
}

// InvalidateResourceWindow drops every entry for the resource inside
// [from, from+days). Called whenever the resource's rules, exclusions or
// month flags change; days <= 0 selects the default rolling window.
func (c *AvailabilityCache) InvalidateResourceWindow(resourceID string, from time.Time, days int) {
	if days <= 0 {
		days = DefaultInvalidationWindowDays
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for d := 0; d < days; d++ {
		k := key{resourceID: resourceID, date: from.AddDate(0, 0, d).Format("2006-01-02")}
		delete(c.entries, k)
	}
}

// Len reports the number of live entries, expired or not.
func (c *AvailabilityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

package attendance

import (
	"sync"
	"time"
)

// DefaultTTL is used when a cache is built with a non-positive ttl.
const DefaultTTL = 3 * time.Hour

// Cache holds the latest transformed snapshot. Staleness is judged on the
// cache clock against the capture time; relevance of each record is judged
// against the caller supplied reference instant.
type Cache struct {
	mu    sync.RWMutex
	now   func() time.Time
	ttl   time.Duration
	entry *cacheEntry
}

type cacheEntry struct {
	records    []Record
	capturedAt time.Time
}

// NewCache constructs an empty cache.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now, ttl: ttl}
}

// TTL reports the maximum snapshot age.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Populate replaces the snapshot wholesale.
func (c *Cache) Populate(records []Record, capturedAt time.Time) {
	if c == nil {
		return
	}
	cloned := cloneRecords(records)
	c.mu.Lock()
	c.entry = &cacheEntry{records: cloned, capturedAt: capturedAt}
	c.mu.Unlock()
}

// Query returns the records for days that have not fully elapsed at
// reference. It reports false when the cache is empty or the snapshot is
// older than the ttl, which tells the caller to refill it.
func (c *Cache) Query(reference time.Time) ([]Record, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry := c.entry
	c.mu.RUnlock()
	if entry == nil {
		return nil, false
	}
	if c.now().Sub(entry.capturedAt) > c.ttl {
		return nil, false
	}
	return Upcoming(entry.records, reference), true
}

// Snapshot returns a copy of the full cached record set and its capture time.
func (c *Cache) Snapshot() ([]Record, time.Time, bool) {
	if c == nil {
		return nil, time.Time{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return nil, time.Time{}, false
	}
	return cloneRecords(c.entry.records), c.entry.capturedAt, true
}

// Invalidate drops the snapshot so the next query misses.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

// Upcoming filters records to those whose day ends strictly after reference.
// The day end is the record date at hour 0 plus 24h.
func Upcoming(records []Record, reference time.Time) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		end := record.Date.Add(24 * time.Hour)
		if end.After(reference) {
			out = append(out, record.clone())
		}
	}
	return out
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

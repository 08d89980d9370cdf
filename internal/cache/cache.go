// Package cache holds the most recently published snapshot.
package cache

import (
	"sync"
	"time"

	"stagehub/internal/metrics"
	"stagehub/pkg/models"
)

// Cache is the single owner of the published snapshot. Readers get the
// snapshot pointer and must treat it as read-only; writers replace it whole.
type Cache struct {
	mu   sync.RWMutex
	snap *models.Snapshot
	now  func() time.Time
}

func New() *Cache {
	return &Cache{now: time.Now}
}

// NewWithClock is New with an injected clock.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{now: now}
}

// Snapshot returns the current snapshot, or false if nothing was published yet.
func (c *Cache) Snapshot() (*models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// Publish swaps in s. The caller must not modify s afterwards. A snapshot
// computed before the current one is still accepted: cycles are not sequenced.
func (c *Cache) Publish(s *models.Snapshot) {
	if s == nil {
		return
	}
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()

	metrics.CachePerformances.Set(float64(s.Total()))
	metrics.CachePublishedTimestamp.Set(float64(s.ComputedAt.Unix()))
}

// Current returns the snapshot together with its age, both taken from the
// same read.
func (c *Cache) Current() (*models.Snapshot, time.Duration, bool) {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()
	if s == nil {
		return nil, 0, false
	}
	return s, c.now().Sub(s.ComputedAt), true
}

// Age is the time since the current snapshot was computed; ok is false when empty.
func (c *Cache) Age() (time.Duration, bool) {
	_, age, ok := c.Current()
	return age, ok
}

// Fresh returns the snapshot when it exists and is younger than window.
func (c *Cache) Fresh(window time.Duration) (*models.Snapshot, bool) {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()
	if s == nil {
		return nil, false
	}
	if c.now().Sub(s.ComputedAt) < window {
		return s, true
	}
	return nil, false
}

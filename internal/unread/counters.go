// Package unread keeps per-feed and per-category unread totals.
package unread

import (
	"sync"

	"github.com/pders01/fluxrd/internal/storage"
)

type Counters struct {
	mu     sync.RWMutex
	feeds  map[string]int
	groups map[string]int
}

func New() *Counters {
	return &Counters{
		feeds:  make(map[string]int),
		groups: make(map[string]int),
	}
}

// Seed replaces all totals with the unread entries in entries. Only
// correct when entries holds every unread entry; prefer Set otherwise.
func (c *Counters) Seed(entries []storage.Entry) {
	feeds := make(map[string]int)
	groups := make(map[string]int)
	for _, e := range entries {
		if e.Status != storage.StatusUnread {
			continue
		}
		feeds[e.Feed.ID]++
		groups[e.Feed.Category.ID]++
	}

	c.mu.Lock()
	c.feeds = feeds
	c.groups = groups
	c.mu.Unlock()
}

// Set replaces all totals with counts reported by the source.
func (c *Counters) Set(counts storage.UnreadCounts) {
	feeds := make(map[string]int, len(counts.Feeds))
	for id, n := range counts.Feeds {
		feeds[id] = max(n, 0)
	}
	groups := make(map[string]int, len(counts.Categories))
	for id, n := range counts.Categories {
		groups[id] = max(n, 0)
	}

	c.mu.Lock()
	c.feeds = feeds
	c.groups = groups
	c.mu.Unlock()
}

func (c *Counters) UpdateFeedUnread(feedID string, status storage.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	adjust(c.feeds, feedID, status)
}

func (c *Counters) UpdateGroupUnread(categoryID string, status storage.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	adjust(c.groups, categoryID, status)
}

func adjust(m map[string]int, id string, status storage.Status) {
	switch status {
	case storage.StatusRead:
		if m[id] > 0 {
			m[id]--
		}
	case storage.StatusUnread:
		m[id]++
	}
}

func (c *Counters) Feed(feedID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeds[feedID]
}

func (c *Counters) Group(categoryID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[categoryID]
}

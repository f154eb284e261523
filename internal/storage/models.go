package storage

import (
	"time"
)

// Status is the read state of an entry.
type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// Toggle returns the opposite read state.
func (s Status) Toggle() Status {
	if s == StatusUnread {
		return StatusRead
	}
	return StatusUnread
}

type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Feed struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	LastFetched  time.Time `json:"last_fetched"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Entry is a single article. Only Status and Starred change after load.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Starred   bool      `json:"starred"`
	Published time.Time `json:"published"`
	ReadAt    time.Time `json:"read_at"`
	Feed      Feed      `json:"feed"`
}

// EntryFilter selects a page of cached entries.
type EntryFilter struct {
	FeedID     string
	CategoryID string
	Status     Status // empty means any
	Starred    bool
	Since      time.Time
	History    bool // read entries, most recently read first
	Offset     int
	Limit      int
}

// EntryPage is one page of a query together with the full match count.
type EntryPage struct {
	Total   int
	Entries []Entry
}

// UnreadCounts are unread totals keyed by feed id and by category id.
type UnreadCounts struct {
	Feeds      map[string]int
	Categories map[string]int
}

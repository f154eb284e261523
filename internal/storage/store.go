package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

var (
	feedsBucket   = []byte("feeds")
	entriesBucket = []byte("entries")
	hiddenBucket  = []byte("hidden")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedsBucket, entriesBucket, hiddenBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveFeed(feed *Feed) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		data, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		return b.Put([]byte(feed.ID), data)
	})
}

func (s *Store) GetFeed(id string) (*Feed, error) {
	var feed Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(feedsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("feed %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &feed)
	})
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (s *Store) GetAllFeeds() ([]*Feed, error) {
	var feeds []*Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(feedsBucket).ForEach(func(_ []byte, v []byte) error {
			var feed Feed
			if err := json.Unmarshal(v, &feed); err != nil {
				return err
			}
			feeds = append(feeds, &feed)
			return nil
		})
	})
	// Title (case-insensitive), falling back to URL
	sort.Slice(feeds, func(i, j int) bool {
		ti := feeds[i].Title
		tj := feeds[j].Title
		if ti == "" {
			ti = feeds[i].URL
		}
		if tj == "" {
			tj = feeds[j].URL
		}
		return strings.ToLower(ti) < strings.ToLower(tj)
	})
	return feeds, err
}

// DeleteFeed removes the feed, its entries and its hidden marker.
func (s *Store) DeleteFeed(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(feedsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(hiddenBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(entriesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.Feed.ID == id {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SaveEntries upserts entries. Read state and starred flags already stored
// win over the incoming copy so a refresh never resurrects read entries.
func (s *Store) SaveEntries(entries []Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, entry := range entries {
			if existing := b.Get([]byte(entry.ID)); existing != nil {
				var prev Entry
				if err := json.Unmarshal(existing, &prev); err == nil {
					entry.Status = prev.Status
					entry.Starred = prev.Starred
					entry.ReadAt = prev.ReadAt
				}
			}
			if entry.Status == "" {
				entry.Status = StatusUnread
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(entry.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetEntry(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// QueryEntries returns the page of entries selected by f together with the
// total number of matches. Entries are newest first; history pages are
// ordered by the time they were read.
func (s *Store) QueryEntries(f EntryFilter) (EntryPage, error) {
	var matched []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_ []byte, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if matchesFilter(entry, f) {
				matched = append(matched, entry)
			}
			return nil
		})
	})
	if err != nil {
		return EntryPage{}, err
	}

	if f.History {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ReadAt.After(matched[j].ReadAt)
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Published.After(matched[j].Published)
		})
	}

	page := EntryPage{Total: len(matched)}
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	page.Entries = matched[start:end]
	return page, nil
}

func matchesFilter(e Entry, f EntryFilter) bool {
	if f.FeedID != "" && e.Feed.ID != f.FeedID {
		return false
	}
	if f.CategoryID != "" && e.Feed.Category.ID != f.CategoryID {
		return false
	}
	if f.History && e.Status != StatusRead {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Starred && !e.Starred {
		return false
	}
	if !f.Since.IsZero() && e.Published.Before(f.Since) {
		return false
	}
	return true
}

// SetEntriesStatus sets the read state of every listed entry. Unknown ids
// fail the whole update.
func (s *Store) SetEntriesStatus(ids []string, status Status) error {
	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, id := range ids {
			err := updateEntry(b, id, func(e *Entry) {
				e.Status = status
				if status == StatusRead {
					e.ReadAt = now
				}
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ToggleStarred flips the starred flag and returns the new value.
func (s *Store) ToggleStarred(id string) (bool, error) {
	var starred bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		return updateEntry(tx.Bucket(entriesBucket), id, func(e *Entry) {
			e.Starred = !e.Starred
			starred = e.Starred
		})
	})
	return starred, err
}

func updateEntry(b *bolt.Bucket, id string, mutate func(*Entry)) error {
	data := b.Get([]byte(id))
	if data == nil {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	mutate(&entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.Put([]byte(id), data)
}

// UnreadCounts totals unread entries over the whole cache.
func (s *Store) UnreadCounts() (UnreadCounts, error) {
	counts := UnreadCounts{Feeds: make(map[string]int), Categories: make(map[string]int)}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if entry.Status == StatusUnread {
				counts.Feeds[entry.Feed.ID]++
				counts.Categories[entry.Feed.Category.ID]++
			}
			return nil
		})
	})
	return counts, err
}

// HiddenFeedIDs lists feeds excluded from the all/today/category views.
func (s *Store) HiddenFeedIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(hiddenBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}

func (s *Store) SetFeedHidden(feedID string, hidden bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(hiddenBucket)
		if hidden {
			return b.Put([]byte(feedID), []byte{1})
		}
		return b.Delete([]byte(feedID))
	})
}

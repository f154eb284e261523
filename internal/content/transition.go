package content

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/storage"
)

var (
	// ErrInFlight is returned when an entry already has a pending remote
	// status call.
	ErrInFlight      = errors.New("entry update already in flight")
	ErrNoActiveEntry = errors.New("no active entry")
)

// Remote reports entry state changes to the feed server.
type Remote interface {
	UpdateEntriesStatus(ctx context.Context, ids []string, status storage.Status) error
	ToggleStarred(ctx context.Context, id string) error
}

// UnreadCounters are the per-feed and per-category unread aggregates kept
// outside the article view.
type UnreadCounters interface {
	UpdateFeedUnread(feedID string, status storage.Status)
	UpdateGroupUnread(categoryID string, status storage.Status)
}

// Controller runs read-state transitions. The remote call is the only
// fallible step; local state is written only after it succeeds.
type Controller struct {
	store    *Store
	remote   Remote
	counters UnreadCounters

	// OnOpen runs after an entry has been opened and its batch applied.
	OnOpen func(storage.Entry)

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewController(store *Store, remote Remote, counters UnreadCounters) *Controller {
	return &Controller{
		store:    store,
		remote:   remote,
		counters: counters,
		inflight: make(map[string]struct{}),
	}
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// InFlight reports whether id has a pending remote call.
func (c *Controller) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[id]
	return busy
}

// Open makes entry the active content and marks it read. An unread entry
// is first reported to the remote; if that fails nothing local changes
// and the error is returned. extra joins the same write, so view fields
// such as focus land with the transition.
func (c *Controller) Open(ctx context.Context, entry storage.Entry, extra ...Update) error {
	if !c.acquire(entry.ID) {
		return fmt.Errorf("open %s: %w", entry.ID, ErrInFlight)
	}
	defer c.release(entry.ID)

	wasUnread := entry.Status == storage.StatusUnread
	if wasUnread {
		if err := c.remote.UpdateEntriesStatus(ctx, []string{entry.ID}, storage.StatusRead); err != nil {
			debuglog.WithFields(map[string]any{"entry": entry.ID}).Warnf("mark read failed: %v", err)
			return fmt.Errorf("marking entry %s read: %w", entry.ID, err)
		}
	}

	active := entry
	active.Status = storage.StatusRead
	updates := []Update{
		WithActiveContent(&active),
		patchEntry(entry.ID, func(e *storage.Entry) { e.Status = storage.StatusRead }),
	}
	if wasUnread {
		updates = append(updates, adjustUnreadCount(-1))
	}
	c.store.Apply(append(updates, extra...)...)

	if wasUnread {
		c.notifyCounters(entry, storage.StatusRead)
	}
	if c.OnOpen != nil {
		c.OnOpen(active)
	}
	return nil
}

// ToggleStatus flips the read state of the active entry.
func (c *Controller) ToggleStatus(ctx context.Context) error {
	active := c.store.Snapshot().ActiveContent
	if active == nil {
		return ErrNoActiveEntry
	}
	if !c.acquire(active.ID) {
		return fmt.Errorf("toggle status %s: %w", active.ID, ErrInFlight)
	}
	defer c.release(active.ID)

	next := active.Status.Toggle()
	if err := c.remote.UpdateEntriesStatus(ctx, []string{active.ID}, next); err != nil {
		return fmt.Errorf("marking entry %s %s: %w", active.ID, next, err)
	}

	delta := 1
	if next == storage.StatusRead {
		delta = -1
	}
	c.store.Apply(
		patchEntry(active.ID, func(e *storage.Entry) { e.Status = next }),
		adjustUnreadCount(delta),
	)
	c.notifyCounters(*active, next)
	return nil
}

// ToggleStarred flips the starred flag of the active entry.
func (c *Controller) ToggleStarred(ctx context.Context) error {
	active := c.store.Snapshot().ActiveContent
	if active == nil {
		return ErrNoActiveEntry
	}
	if !c.acquire(active.ID) {
		return fmt.Errorf("toggle starred %s: %w", active.ID, ErrInFlight)
	}
	defer c.release(active.ID)

	if err := c.remote.ToggleStarred(ctx, active.ID); err != nil {
		return fmt.Errorf("toggling star on entry %s: %w", active.ID, err)
	}

	starred := !active.Starred
	c.store.Apply(patchEntry(active.ID, func(e *storage.Entry) { e.Starred = starred }))
	return nil
}

// Close clears the active entry.
func (c *Controller) Close() {
	c.store.Apply(WithActiveContent(nil), WithArticleFocused(false))
}

func (c *Controller) notifyCounters(e storage.Entry, status storage.Status) {
	if c.counters == nil {
		return
	}
	c.counters.UpdateFeedUnread(e.Feed.ID, status)
	c.counters.UpdateGroupUnread(e.Feed.Category.ID, status)
}

func adjustUnreadCount(delta int) Update {
	return func(st *State) {
		st.UnreadCount += delta
		if st.UnreadCount < 0 {
			st.UnreadCount = 0
		}
	}
}

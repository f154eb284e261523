// Package app wires the article view to an entry source: the local bbolt
// cache or a Miniflux server.
package app

import (
	"context"
	"time"

	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/miniflux"
	"github.com/pders01/fluxrd/internal/storage"
)

// Query selects one page of entries for a scope.
type Query struct {
	Scope      content.Scope
	Status     storage.Status // empty for any
	CategoryID string
	Offset     int
	Limit      int
}

// Source loads pages of entries.
type Source interface {
	Entries(ctx context.Context, q Query) (storage.EntryPage, error)
}

// EntryLookup fetches a single entry by id.
type EntryLookup interface {
	Entry(ctx context.Context, id string) (storage.Entry, error)
}

// UnreadCounter reports unread totals over everything the source holds,
// not just the loaded pages.
type UnreadCounter interface {
	UnreadCounts(ctx context.Context) (storage.UnreadCounts, error)
}

// Backend is a source that also accepts read and starred changes.
type Backend interface {
	Source
	EntryLookup
	UnreadCounter
	content.Remote
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LocalBackend serves entries from the bbolt cache.
type LocalBackend struct {
	store *storage.Store
	now   func() time.Time
}

func NewLocalBackend(store *storage.Store) *LocalBackend {
	return &LocalBackend{store: store, now: time.Now}
}

func (b *LocalBackend) Entries(_ context.Context, q Query) (storage.EntryPage, error) {
	f := storage.EntryFilter{
		Status: q.Status,
		Offset: q.Offset,
		Limit:  q.Limit,
	}
	switch q.Scope {
	case content.ScopeToday:
		f.Since = startOfDay(b.now())
	case content.ScopeStarred:
		f.Starred = true
	case content.ScopeHistory:
		f.History = true
	case content.ScopeCategory:
		f.CategoryID = q.CategoryID
	}
	return b.store.QueryEntries(f)
}

func (b *LocalBackend) Entry(_ context.Context, id string) (storage.Entry, error) {
	e, err := b.store.GetEntry(id)
	if err != nil {
		return storage.Entry{}, err
	}
	return *e, nil
}

func (b *LocalBackend) UnreadCounts(context.Context) (storage.UnreadCounts, error) {
	return b.store.UnreadCounts()
}

func (b *LocalBackend) UpdateEntriesStatus(_ context.Context, ids []string, status storage.Status) error {
	return b.store.SetEntriesStatus(ids, status)
}

func (b *LocalBackend) ToggleStarred(_ context.Context, id string) error {
	_, err := b.store.ToggleStarred(id)
	return err
}

// RemoteBackend serves entries from a Miniflux server.
type RemoteBackend struct {
	client *miniflux.Client
	now    func() time.Time
}

func NewRemoteBackend(client *miniflux.Client) *RemoteBackend {
	return &RemoteBackend{client: client, now: time.Now}
}

func (b *RemoteBackend) Entries(ctx context.Context, q Query) (storage.EntryPage, error) {
	mq := miniflux.EntryQuery{
		Status: q.Status,
		Offset: q.Offset,
		Limit:  q.Limit,
	}
	switch q.Scope {
	case content.ScopeToday:
		mq.PublishedAfter = startOfDay(b.now())
	case content.ScopeStarred:
		mq.Starred = true
	case content.ScopeHistory:
		// history is the read track ordered by when entries were read
		if q.Status == storage.StatusUnread {
			return storage.EntryPage{}, nil
		}
		mq.Status = storage.StatusRead
		mq.ByChange = true
	case content.ScopeCategory:
		mq.CategoryID = q.CategoryID
	}
	return b.client.Entries(ctx, mq)
}

func (b *RemoteBackend) Entry(ctx context.Context, id string) (storage.Entry, error) {
	return b.client.Entry(ctx, id)
}

func (b *RemoteBackend) UnreadCounts(ctx context.Context) (storage.UnreadCounts, error) {
	return b.client.UnreadCounts(ctx)
}

func (b *RemoteBackend) UpdateEntriesStatus(ctx context.Context, ids []string, status storage.Status) error {
	return b.client.UpdateEntriesStatus(ctx, ids, status)
}

func (b *RemoteBackend) ToggleStarred(ctx context.Context, id string) error {
	return b.client.ToggleBookmark(ctx, id)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/dedup"
	"github.com/pders01/fluxrd/internal/storage"
	"github.com/pders01/fluxrd/internal/unread"
)

// fakeSource serves pages out of two in-memory tracks.
type fakeSource struct {
	mu      sync.Mutex
	all     []storage.Entry
	unread  []storage.Entry
	err     error
	queries []Query
}

func (f *fakeSource) Entries(_ context.Context, q Query) (storage.EntryPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return storage.EntryPage{}, f.err
	}
	track := f.all
	if q.Status == storage.StatusUnread {
		track = f.unread
	}
	start := min(q.Offset, len(track))
	end := len(track)
	if q.Limit > 0 {
		end = min(start+q.Limit, end)
	}
	return storage.EntryPage{Total: len(track), Entries: track[start:end]}, nil
}

func makeEntries(prefix string, n int, status storage.Status) []storage.Entry {
	out := make([]storage.Entry, n)
	for i := range out {
		out[i] = storage.Entry{
			ID:     fmt.Sprintf("%s%d", prefix, i),
			Title:  fmt.Sprintf("%s %d", prefix, i),
			Status: status,
			Feed:   storage.Feed{ID: "f1", Category: storage.Category{ID: "c1"}},
		}
	}
	return out
}

func newTestService(src Source, pageSize int) (*Service, *content.Store, *unread.Counters) {
	settings := content.Settings{
		ShowStatus:       content.FilterAll,
		HomePage:         content.ScopeAll,
		RemoveDuplicates: dedup.None,
		PageSize:         pageSize,
	}
	store := content.NewStore(settings)
	counters := unread.New()
	return NewService(store, src, content.NewSettingsState(settings), counters), store, counters
}

func TestService_Load(t *testing.T) {
	src := &fakeSource{
		all:    makeEntries("a", 5, storage.StatusRead),
		unread: makeEntries("u", 3, storage.StatusUnread),
	}
	svc, store, counters := newTestService(src, 2)

	gen := store.Generation()
	require.NoError(t, svc.Load(context.Background()))

	st := store.Snapshot()
	assert.Len(t, st.Entries, 2)
	assert.Len(t, st.UnreadEntries, 2)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 3, st.UnreadCount)
	assert.Equal(t, 2, st.Offset)
	assert.Equal(t, 2, st.UnreadOffset)
	assert.False(t, st.Loading)
	assert.True(t, st.LoadMoreVisible)
	assert.True(t, st.LoadMoreUnreadVisible)
	// SetLoading(true) and the result batch
	assert.Equal(t, gen+2, store.Generation())

	assert.Equal(t, 2, counters.Feed("f1"))
	assert.Equal(t, 2, counters.Group("c1"))

	require.Len(t, src.queries, 2)
	assert.Equal(t, Query{Scope: content.ScopeAll, Limit: 2}, src.queries[0])
	assert.Equal(t, Query{Scope: content.ScopeAll, Status: storage.StatusUnread, Limit: 2}, src.queries[1])
}

// countingSource also reports totals beyond the loaded pages.
type countingSource struct {
	fakeSource
	counts storage.UnreadCounts
	err    error
}

func (c *countingSource) UnreadCounts(context.Context) (storage.UnreadCounts, error) {
	return c.counts, c.err
}

func TestService_LoadSeedsCountersFromSourceTotals(t *testing.T) {
	src := &countingSource{
		fakeSource: fakeSource{unread: makeEntries("u", 150, storage.StatusUnread)},
		counts: storage.UnreadCounts{
			Feeds:      map[string]int{"f1": 150},
			Categories: map[string]int{"c1": 150},
		},
	}
	svc, store, counters := newTestService(src, 100)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))
	assert.Len(t, store.Snapshot().UnreadEntries, 100)
	assert.Equal(t, 150, counters.Feed("f1"))
	assert.Equal(t, 150, counters.Group("c1"))

	ctl := content.NewController(store, &localBackendStub{}, counters)
	for _, e := range store.Snapshot().UnreadEntries {
		require.NoError(t, ctl.Open(ctx, e))
	}
	assert.Equal(t, 50, counters.Feed("f1"))
	assert.Equal(t, 50, counters.Group("c1"))
}

func TestService_LoadFallsBackToPageWhenCountsFail(t *testing.T) {
	src := &countingSource{
		fakeSource: fakeSource{unread: makeEntries("u", 3, storage.StatusUnread)},
		err:        errors.New("counters endpoint down"),
	}
	svc, _, counters := newTestService(src, 10)
	require.NoError(t, svc.Load(context.Background()))
	assert.Equal(t, 3, counters.Feed("f1"))
}

func TestService_LoadFailureKeepsTracks(t *testing.T) {
	src := &fakeSource{all: makeEntries("a", 2, storage.StatusRead)}
	svc, store, _ := newTestService(src, 10)
	require.NoError(t, svc.Load(context.Background()))

	src.err = errors.New("connection refused")
	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, src.err)

	st := store.Snapshot()
	assert.Len(t, st.Entries, 2)
	assert.False(t, st.Loading)
}

func TestService_LoadMore(t *testing.T) {
	src := &fakeSource{
		all:    makeEntries("a", 5, storage.StatusRead),
		unread: makeEntries("u", 3, storage.StatusUnread),
	}
	svc, store, _ := newTestService(src, 2)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	require.NoError(t, svc.LoadMore(ctx))
	st := store.Snapshot()
	assert.Equal(t, []string{"a0", "a1", "a2", "a3"}, ids(st.Entries))
	assert.Equal(t, 4, st.Offset)
	assert.Len(t, st.UnreadEntries, 2, "only the active track grows")

	require.NoError(t, svc.LoadMore(ctx))
	st = store.Snapshot()
	assert.Len(t, st.Entries, 5)
	assert.False(t, st.LoadMoreVisible)

	calls := len(src.queries)
	require.NoError(t, svc.LoadMore(ctx))
	assert.Len(t, src.queries, calls, "fully loaded track does not query")

	svc.SetFilter(content.FilterTitle, content.FilterUnread, "")
	require.NoError(t, svc.LoadMore(ctx))
	st = store.Snapshot()
	assert.Equal(t, []string{"u0", "u1", "u2"}, ids(st.UnreadEntries))
	assert.Equal(t, 3, st.UnreadOffset)
	assert.False(t, st.LoadMoreUnreadVisible)
	last := src.queries[len(src.queries)-1]
	assert.Equal(t, Query{Scope: content.ScopeAll, Status: storage.StatusUnread, Offset: 2, Limit: 2}, last)
}

func TestService_LoadMoreSkipsOverlap(t *testing.T) {
	src := &fakeSource{all: makeEntries("a", 4, storage.StatusRead)}
	svc, store, _ := newTestService(src, 2)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	// one entry arrived at the top, shifting the next page by one
	src.all = append([]storage.Entry{{ID: "new"}}, src.all...)
	require.NoError(t, svc.LoadMore(ctx))

	st := store.Snapshot()
	assert.Equal(t, []string{"a0", "a1", "a2"}, ids(st.Entries))
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 4, st.Offset)
}

// gatedSource holds Entries calls until release is closed once gate is set.
type gatedSource struct {
	fakeSource
	gate    bool
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) Entries(ctx context.Context, q Query) (storage.EntryPage, error) {
	if g.gate {
		close(g.started)
		<-g.release
	}
	return g.fakeSource.Entries(ctx, q)
}

func (*gatedSource) UpdateEntriesStatus(context.Context, []string, storage.Status) error {
	return nil
}

func (*gatedSource) ToggleStarred(context.Context, string) error { return nil }

func TestService_LoadMoreKeepsTransitionsDuringFetch(t *testing.T) {
	src := &gatedSource{
		fakeSource: fakeSource{unread: makeEntries("u", 4, storage.StatusUnread)},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc, store, counters := newTestService(src, 2)
	ctx := context.Background()
	svc.SetFilter(content.FilterTitle, content.FilterUnread, "")
	require.NoError(t, svc.Load(ctx))
	ctl := content.NewController(store, src, counters)

	src.gate = true
	done := make(chan error, 1)
	go func() { done <- svc.LoadMore(ctx) }()
	<-src.started

	opened := store.Snapshot().UnreadEntries[0]
	require.NoError(t, ctl.Open(ctx, opened))
	require.NoError(t, ctl.ToggleStarred(ctx))

	close(src.release)
	require.NoError(t, <-done)

	st := store.Snapshot()
	assert.Equal(t, []string{"u0", "u1", "u2", "u3"}, ids(st.UnreadEntries))
	assert.Equal(t, storage.StatusRead, st.UnreadEntries[0].Status)
	assert.True(t, st.UnreadEntries[0].Starred)
	assert.Equal(t, storage.StatusRead, st.ActiveContent.Status)
	assert.Equal(t, 4, st.UnreadOffset)
}

func TestService_SetFilterIsOneWrite(t *testing.T) {
	svc, store, _ := newTestService(&fakeSource{}, 10)
	gen := store.Generation()

	svc.SetFilter(content.FilterContent, content.FilterUnread, "golang")

	assert.Equal(t, gen+1, store.Generation())
	st := store.Snapshot()
	assert.Equal(t, content.FilterContent, st.FilterType)
	assert.Equal(t, content.FilterUnread, st.FilterStatus)
	assert.Equal(t, "golang", st.FilterString)
}

func TestService_SetScope(t *testing.T) {
	src := &fakeSource{all: makeEntries("a", 3, storage.StatusRead)}
	svc, store, _ := newTestService(src, 10)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))
	active := src.all[0]
	store.SetActiveContent(&active)

	require.NoError(t, svc.SetScope(ctx, content.ScopeCategory, "c9"))

	st := store.Snapshot()
	assert.Equal(t, content.ScopeCategory, st.InfoFrom)
	assert.Nil(t, st.ActiveContent)
	assert.Equal(t, "c9", svc.CategoryID())
	last := src.queries[len(src.queries)-1]
	assert.Equal(t, "c9", last.CategoryID)
	assert.Equal(t, content.ScopeCategory, last.Scope)

	assert.ErrorIs(t, svc.SetScope(ctx, content.ScopeCategory, ""), ErrMissingCategory)
}

func TestNewSession_PipelineUsesRegisteredStrategies(t *testing.T) {
	settings := content.Settings{
		ShowStatus:       content.FilterUnread,
		HomePage:         content.ScopeAll,
		RemoveDuplicates: "url",
		PageSize:         10,
	}
	dup := storage.Entry{ID: "2", URL: "http://example.com/post/#top", Status: storage.StatusUnread}
	src := &localBackendStub{fakeSource: fakeSource{unread: []storage.Entry{
		{ID: "1", URL: "https://example.com/post", Status: storage.StatusUnread},
		dup,
	}}}

	sess, err := NewSession(settings, src, []string{"hidden"})
	require.NoError(t, err)
	require.NoError(t, sess.Service.Load(context.Background()))

	_, ok := sess.Registry.Lookup("title")
	assert.True(t, ok)
	assert.True(t, sess.Hidden.Contains("hidden"))
	assert.Len(t, sess.Pipeline.Entries(), 1)
}

type localBackendStub struct {
	fakeSource
}

func (*localBackendStub) Entry(context.Context, string) (storage.Entry, error) {
	return storage.Entry{}, storage.ErrNotFound
}

func (*localBackendStub) UpdateEntriesStatus(context.Context, []string, storage.Status) error {
	return nil
}

func (*localBackendStub) ToggleStarred(context.Context, string) error { return nil }

func (*localBackendStub) UnreadCounts(context.Context) (storage.UnreadCounts, error) {
	return storage.UnreadCounts{}, nil
}

func ids(entries []storage.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

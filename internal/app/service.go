package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/storage"
	"github.com/pders01/fluxrd/internal/unread"
)

var ErrMissingCategory = errors.New("category scope needs a category id")

const defaultPageSize = 100

// Service fills the article view from a Source and keeps the pagination
// cursors in step with what has been loaded.
type Service struct {
	store    *content.Store
	source   Source
	settings *content.SettingsState
	counters *unread.Counters

	mu         sync.Mutex
	categoryID string
}

func NewService(store *content.Store, source Source, settings *content.SettingsState, counters *unread.Counters) *Service {
	return &Service{
		store:    store,
		source:   source,
		settings: settings,
		counters: counters,
	}
}

func (s *Service) pageSize() int {
	if n := s.settings.Get().PageSize; n > 0 {
		return n
	}
	return defaultPageSize
}

// CategoryID is the category the category scope is showing.
func (s *Service) CategoryID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryID
}

// Load fetches the first page of both tracks for the current scope and
// replaces them in one write.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := s.store.Snapshot().InfoFrom
	if scope == content.ScopeCategory && s.categoryID == "" {
		return ErrMissingCategory
	}
	s.store.SetLoading(true)

	q := Query{Scope: scope, CategoryID: s.categoryID, Limit: s.pageSize()}
	all, err := s.source.Entries(ctx, q)
	if err != nil {
		s.store.SetLoading(false)
		return fmt.Errorf("failed to load %s entries: %w", scope, err)
	}
	q.Status = storage.StatusUnread
	unreadPage, err := s.source.Entries(ctx, q)
	if err != nil {
		s.store.SetLoading(false)
		return fmt.Errorf("failed to load unread %s entries: %w", scope, err)
	}

	s.store.Apply(
		content.WithEntries(all.Entries),
		content.WithUnreadEntries(unreadPage.Entries),
		content.WithTotal(all.Total),
		content.WithUnreadCount(unreadPage.Total),
		content.WithOffset(len(all.Entries)),
		content.WithUnreadOffset(len(unreadPage.Entries)),
		content.WithLoading(false),
	)
	s.seedCounters(ctx, unreadPage)

	debuglog.WithFields(map[string]any{
		"scope":  scope,
		"total":  all.Total,
		"unread": unreadPage.Total,
	}).Debugf("entries loaded")
	return nil
}

// seedCounters takes the source's own totals when it has them. The first
// unread page is only a fallback, exact when it holds every unread entry.
func (s *Service) seedCounters(ctx context.Context, unreadPage storage.EntryPage) {
	if s.counters == nil {
		return
	}
	if uc, ok := s.source.(UnreadCounter); ok {
		counts, err := uc.UnreadCounts(ctx)
		if err == nil {
			s.counters.Set(counts)
			return
		}
		debuglog.Warnf("unread counts unavailable, using loaded page: %v", err)
	}
	if len(unreadPage.Entries) < unreadPage.Total {
		debuglog.WithFields(map[string]any{"loaded": len(unreadPage.Entries), "total": unreadPage.Total}).
			Warnf("unread counters seeded from a partial page")
	}
	s.counters.Seed(unreadPage.Entries)
}

// LoadMore appends the next page of the track the status filter selects.
// It is a no-op when that track is fully loaded.
func (s *Service) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Snapshot()
	unreadTrack := st.FilterStatus == content.FilterUnread
	if (unreadTrack && !st.LoadMoreUnreadVisible) || (!unreadTrack && !st.LoadMoreVisible) {
		return nil
	}

	q := Query{Scope: st.InfoFrom, CategoryID: s.categoryID, Offset: st.Offset, Limit: s.pageSize()}
	if unreadTrack {
		q.Status = storage.StatusUnread
		q.Offset = st.UnreadOffset
	}

	s.store.SetLoading(true)
	page, err := s.source.Entries(ctx, q)
	if err != nil {
		s.store.SetLoading(false)
		return fmt.Errorf("failed to load more entries: %w", err)
	}

	// appended under the store lock so transitions that finished during the
	// fetch are kept
	if unreadTrack {
		s.store.Apply(
			content.WithMoreUnreadEntries(page.Entries),
			content.WithUnreadCount(page.Total),
			content.WithLoading(false),
		)
		return nil
	}
	s.store.Apply(
		content.WithMoreEntries(page.Entries),
		content.WithTotal(page.Total),
		content.WithLoading(false),
	)
	return nil
}

// SetFilter replaces the three filter fields in one write.
func (s *Service) SetFilter(ft content.FilterType, status content.FilterStatus, text string) {
	s.store.Apply(
		content.WithFilterType(ft),
		content.WithFilterStatus(status),
		content.WithFilterString(text),
	)
}

// SetScope switches the view, clears both tracks and reloads.
func (s *Service) SetScope(ctx context.Context, scope content.Scope, categoryID string) error {
	if scope == content.ScopeCategory && categoryID == "" {
		return ErrMissingCategory
	}

	s.mu.Lock()
	s.categoryID = categoryID
	s.store.Apply(
		content.WithInfoFrom(scope),
		content.WithActiveContent(nil),
		content.WithEntries(nil),
		content.WithUnreadEntries(nil),
		content.WithOffset(0),
		content.WithUnreadOffset(0),
		content.WithTotal(0),
		content.WithUnreadCount(0),
	)
	s.mu.Unlock()

	return s.Load(ctx)
}

// Package content holds the article view state of a session, the derived
// list of visible entries, and the read-state transitions that couple a
// remote acknowledgment to local bookkeeping.
package content

import (
	"sync"

	"github.com/pders01/fluxrd/internal/storage"
)

// FilterStatus selects the entry track and the status filter.
type FilterStatus string

const (
	FilterAll    FilterStatus = "all"
	FilterUnread FilterStatus = "unread"
)

// FilterType is the field a search term is matched against.
type FilterType string

const (
	FilterTitle   FilterType = "Title"
	FilterContent FilterType = "content"
	FilterAuthor  FilterType = "author"
)

// Scope is the broad view the user is in.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeToday    Scope = "today"
	ScopeStarred  Scope = "starred"
	ScopeHistory  Scope = "history"
	ScopeCategory Scope = "category"
)

// State describes the current article view.
type State struct {
	ActiveContent         *storage.Entry
	Entries               []storage.Entry
	UnreadEntries         []storage.Entry
	FilterStatus          FilterStatus
	FilterString          string
	FilterType            FilterType
	InfoFrom              Scope
	Offset                int
	UnreadOffset          int
	Total                 int
	UnreadCount           int
	LoadMoreVisible       bool
	LoadMoreUnreadVisible bool
	Loading               bool
	IsArticleFocused      bool
}

// Update replaces one or more fields of a State.
type Update func(*State)

// Store is the single owner of a session's State. Every write goes
// through Apply, which bumps the generation once per batch.
type Store struct {
	mu          sync.RWMutex
	state       State
	generation  uint64
	subscribers map[int]func()
	nextSub     int
}

// NewStore creates the session state with settings-derived defaults.
func NewStore(settings Settings) *Store {
	s := &Store{
		state: State{
			FilterStatus: settings.ShowStatus,
			FilterType:   FilterTitle,
			InfoFrom:     settings.HomePage,
			Loading:      true,
		},
		subscribers: make(map[int]func()),
	}
	deriveLoadMore(&s.state)
	return s
}

// Apply performs all updates as one logical write: dependents observe
// either none or all of them.
func (s *Store) Apply(updates ...Update) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	for _, u := range updates {
		u(&s.state)
	}
	deriveLoadMore(&s.state)
	s.generation++
	subs := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func deriveLoadMore(st *State) {
	st.LoadMoreVisible = len(st.Entries) < st.Total
	st.LoadMoreUnreadVisible = len(st.UnreadEntries) < st.UnreadCount
}

// Snapshot returns a copy of the state that is safe to keep after
// further writes.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) snapshotWithGeneration() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), s.generation
}

// Generation increases with every Apply.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Subscribe registers fn to run after every write. The returned function
// removes it.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (st State) clone() State {
	out := st
	if st.ActiveContent != nil {
		active := *st.ActiveContent
		out.ActiveContent = &active
	}
	out.Entries = append([]storage.Entry(nil), st.Entries...)
	out.UnreadEntries = append([]storage.Entry(nil), st.UnreadEntries...)
	return out
}

func WithActiveContent(e *storage.Entry) Update {
	return func(st *State) {
		if e == nil {
			st.ActiveContent = nil
			return
		}
		active := *e
		st.ActiveContent = &active
	}
}

func WithEntries(entries []storage.Entry) Update {
	return func(st *State) { st.Entries = entries }
}

func WithUnreadEntries(entries []storage.Entry) Update {
	return func(st *State) { st.UnreadEntries = entries }
}

// WithMoreEntries appends the entries of page the all track does not hold
// yet and advances its cursor by the page length. It works on the state
// current at write time, not on an earlier snapshot.
func WithMoreEntries(page []storage.Entry) Update {
	return func(st *State) {
		st.Entries = appendNew(st.Entries, page)
		st.Offset += len(page)
	}
}

// WithMoreUnreadEntries is WithMoreEntries for the unread track.
func WithMoreUnreadEntries(page []storage.Entry) Update {
	return func(st *State) {
		st.UnreadEntries = appendNew(st.UnreadEntries, page)
		st.UnreadOffset += len(page)
	}
}

// appendNew appends the entries of next that list does not hold yet. A
// page can overlap the previous one when entries changed in between.
func appendNew(list, next []storage.Entry) []storage.Entry {
	seen := make(map[string]struct{}, len(list))
	for _, e := range list {
		seen[e.ID] = struct{}{}
	}
	out := append([]storage.Entry(nil), list...)
	for _, e := range next {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func WithFilterStatus(v FilterStatus) Update {
	return func(st *State) { st.FilterStatus = v }
}

func WithFilterString(v string) Update {
	return func(st *State) { st.FilterString = v }
}

func WithFilterType(v FilterType) Update {
	return func(st *State) { st.FilterType = v }
}

func WithInfoFrom(v Scope) Update {
	return func(st *State) { st.InfoFrom = v }
}

func WithOffset(v int) Update {
	return func(st *State) { st.Offset = v }
}

func WithUnreadOffset(v int) Update {
	return func(st *State) { st.UnreadOffset = v }
}

func WithTotal(v int) Update {
	return func(st *State) { st.Total = v }
}

func WithUnreadCount(v int) Update {
	return func(st *State) { st.UnreadCount = v }
}

func WithLoading(v bool) Update {
	return func(st *State) { st.Loading = v }
}

func WithArticleFocused(v bool) Update {
	return func(st *State) { st.IsArticleFocused = v }
}

func (s *Store) SetActiveContent(e *storage.Entry)        { s.Apply(WithActiveContent(e)) }
func (s *Store) SetEntries(entries []storage.Entry)       { s.Apply(WithEntries(entries)) }
func (s *Store) SetUnreadEntries(entries []storage.Entry) { s.Apply(WithUnreadEntries(entries)) }
func (s *Store) SetFilterStatus(v FilterStatus)           { s.Apply(WithFilterStatus(v)) }
func (s *Store) SetFilterString(v string)                 { s.Apply(WithFilterString(v)) }
func (s *Store) SetFilterType(v FilterType)               { s.Apply(WithFilterType(v)) }
func (s *Store) SetInfoFrom(v Scope)                      { s.Apply(WithInfoFrom(v)) }
func (s *Store) SetOffset(v int)                          { s.Apply(WithOffset(v)) }
func (s *Store) SetUnreadOffset(v int)                    { s.Apply(WithUnreadOffset(v)) }
func (s *Store) SetTotal(v int)                           { s.Apply(WithTotal(v)) }
func (s *Store) SetUnreadCount(v int)                     { s.Apply(WithUnreadCount(v)) }
func (s *Store) SetLoading(v bool)                        { s.Apply(WithLoading(v)) }
func (s *Store) SetArticleFocused(v bool)                 { s.Apply(WithArticleFocused(v)) }

// patchEntry rewrites every copy of id in both tracks and in the active
// entry. Slices are copied so earlier snapshots stay untouched.
func patchEntry(id string, mutate func(*storage.Entry)) Update {
	return func(st *State) {
		st.Entries = patchList(st.Entries, id, mutate)
		st.UnreadEntries = patchList(st.UnreadEntries, id, mutate)
		if st.ActiveContent != nil && st.ActiveContent.ID == id {
			active := *st.ActiveContent
			mutate(&active)
			st.ActiveContent = &active
		}
	}
}

func patchList(list []storage.Entry, id string, mutate func(*storage.Entry)) []storage.Entry {
	out := make([]storage.Entry, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			mutate(&out[i])
		}
	}
	return out
}

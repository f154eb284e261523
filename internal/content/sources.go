package content

import (
	"sync"

	"github.com/pders01/fluxrd/internal/dedup"
)

// Settings are the user preferences the article view depends on.
type Settings struct {
	ShowStatus       FilterStatus
	HomePage         Scope
	ShowAllFeeds     bool
	RemoveDuplicates dedup.Strategy
	PageSize         int
}

// SettingsState is an observable settings value.
type SettingsState struct {
	mu         sync.RWMutex
	value      Settings
	generation uint64
}

func NewSettingsState(s Settings) *SettingsState {
	return &SettingsState{value: s}
}

func (s *SettingsState) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *SettingsState) Set(v Settings) {
	s.mu.Lock()
	s.value = v
	s.generation++
	s.mu.Unlock()
}

func (s *SettingsState) read() (Settings, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.generation
}

// HiddenFeedState is the observable set of feed ids hidden from the
// all, today and category views.
type HiddenFeedState struct {
	mu         sync.RWMutex
	ids        map[string]struct{}
	generation uint64
}

func NewHiddenFeedState(ids ...string) *HiddenFeedState {
	h := &HiddenFeedState{}
	h.ids = toSet(ids)
	return h
}

// Set replaces the whole set.
func (h *HiddenFeedState) Set(ids []string) {
	h.mu.Lock()
	h.ids = toSet(ids)
	h.generation++
	h.mu.Unlock()
}

func (h *HiddenFeedState) Contains(feedID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.ids[feedID]
	return ok
}

func (h *HiddenFeedState) read() (map[string]struct{}, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ids, h.generation
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

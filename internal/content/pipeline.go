package content

import (
	"errors"
	"strings"
	"sync"

	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/dedup"
	"github.com/pders01/fluxrd/internal/storage"
)

// Filter derives the visible entries from the view state. Stages run in a
// fixed order: track selection, text filter, status filter, visibility
// filter, deduplication. The source order is preserved.
func Filter(st State, hidden map[string]struct{}, settings Settings, registry *dedup.Registry) []storage.Entry {
	track := st.Entries
	if st.FilterStatus == FilterUnread {
		track = st.UnreadEntries
	}

	filtered := make([]storage.Entry, 0, len(track))
	for _, e := range track {
		if !matchesText(e, st.FilterType, st.FilterString) {
			continue
		}
		if st.FilterStatus != FilterAll && string(e.Status) != string(st.FilterStatus) {
			continue
		}
		filtered = append(filtered, e)
	}

	var visible []storage.Entry
	switch st.InfoFrom {
	case ScopeAll, ScopeToday, ScopeCategory:
		visible = make([]storage.Entry, 0, len(filtered))
		for _, e := range filtered {
			if settings.ShowAllFeeds || !isHidden(hidden, e.Feed.ID) {
				visible = append(visible, e)
			}
		}
	default:
		// starred and history views show the raw entries track; the text
		// and status filters above do not apply to them.
		visible = append([]storage.Entry(nil), st.Entries...)
	}

	if st.FilterStatus != FilterUnread ||
		settings.RemoveDuplicates == dedup.None || settings.RemoveDuplicates == "" ||
		st.InfoFrom == ScopeStarred || st.InfoFrom == ScopeHistory {
		return visible
	}

	if registry == nil {
		return visible
	}
	deduped, err := registry.Dedup(visible, settings.RemoveDuplicates)
	if err != nil {
		if errors.Is(err, dedup.ErrUnknownStrategy) {
			debuglog.Warnf("skipping deduplication: %v", err)
		}
		return visible
	}
	return deduped
}

func matchesText(e storage.Entry, ft FilterType, term string) bool {
	if term == "" {
		return true
	}
	if ft == FilterTitle {
		return strings.Contains(e.Title, term)
	}
	return strings.Contains(e.Content, term)
}

func isHidden(hidden map[string]struct{}, feedID string) bool {
	_, ok := hidden[feedID]
	return ok
}

type pipelineKey struct {
	content, hidden, settings uint64
}

// Pipeline memoizes Filter against the generations of its three inputs.
// Reads are pull-based: writes only invalidate, the next read recomputes.
type Pipeline struct {
	content  *Store
	hidden   *HiddenFeedState
	settings *SettingsState
	registry *dedup.Registry

	mu           sync.Mutex
	key          pipelineKey
	valid        bool
	result       []storage.Entry
	computations int
}

func NewPipeline(content *Store, hidden *HiddenFeedState, settings *SettingsState, registry *dedup.Registry) *Pipeline {
	return &Pipeline{
		content:  content,
		hidden:   hidden,
		settings: settings,
		registry: registry,
	}
}

// Entries returns the current visible list. The returned slice must not
// be modified.
func (p *Pipeline) Entries() []storage.Entry {
	st, contentGen := p.content.snapshotWithGeneration()
	hidden, hiddenGen := p.hidden.read()
	settings, settingsGen := p.settings.read()
	key := pipelineKey{content: contentGen, hidden: hiddenGen, settings: settingsGen}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valid && p.key == key {
		return p.result
	}
	p.result = Filter(st, hidden, settings, p.registry)
	p.key = key
	p.valid = true
	p.computations++
	debuglog.Debugf("pipeline recomputed: %d visible entries", len(p.result))
	return p.result
}

// Generation identifies the inputs of the last computed result.
func (p *Pipeline) Generation() (content, hidden, settings uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key.content, p.key.hidden, p.key.settings
}

// Computations reports how many times the list has been recomputed.
func (p *Pipeline) Computations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computations
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fluxrd/internal/content"
)

var (
	scopeCycle = []content.Scope{content.ScopeAll, content.ScopeToday, content.ScopeStarred, content.ScopeHistory}
	typeCycle  = []content.FilterType{content.FilterTitle, content.FilterContent, content.FilterAuthor}
)

func nextOf[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// HandleKey routes a key press. Article keys go through the dispatcher
// first; whatever it does not bind falls through to the current view.
func (a *App) HandleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return a.quit()
	}
	if a.view == ViewFilter {
		return a.handleFilterKey(msg)
	}

	if a.view == ViewReader || a.activeEntry() != nil {
		if _, handled := a.keys.Dispatch(key); handled {
			return a.flush()
		}
	}

	switch a.view {
	case ViewReader:
		switch key {
		case "q":
			a.closeEntry()
			return nil
		case "o":
			return a.openLink(a.activeEntry())
		}
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	default:
		return a.handleEntriesKey(msg)
	}
}

func (a *App) handleEntriesKey(msg tea.KeyMsg) tea.Cmd {
	st := a.session.Content.Snapshot()
	svc := a.session.Service

	switch msg.String() {
	case "q":
		return a.quit()
	case "enter":
		if i, ok := a.entryList.SelectedItem().(entryItem); ok {
			a.setStatus(MsgOpening, StatusInfo)
			return a.openEntry(i.entry)
		}
		return nil
	case "o":
		if i, ok := a.entryList.SelectedItem().(entryItem); ok {
			return a.openLink(&i.entry)
		}
		return nil
	case "/":
		a.view = ViewFilter
		a.prevFilter = st.FilterString
		a.filterInput.SetValue(st.FilterString)
		a.filterInput.CursorEnd()
		return a.filterInput.Focus()
	case "x":
		svc.SetFilter(st.FilterType, st.FilterStatus, "")
		a.setStatus(MsgFilterCleared, StatusInfo)
		return nil
	case "tab":
		next := content.FilterUnread
		if st.FilterStatus == content.FilterUnread {
			next = content.FilterAll
		}
		svc.SetFilter(st.FilterType, next, st.FilterString)
		return nil
	case "t":
		svc.SetFilter(nextOf(typeCycle, st.FilterType), st.FilterStatus, st.FilterString)
		return nil
	case "L":
		more := st.LoadMoreVisible
		if st.FilterStatus == content.FilterUnread {
			more = st.LoadMoreUnreadVisible
		}
		if !more {
			a.setStatus(MsgAllLoaded, StatusInfo)
			return nil
		}
		a.setStatus(MsgLoading, StatusInfo)
		return a.loadMore()
	case "r":
		if a.refresher == nil {
			a.setStatus(MsgNoRefresh, StatusInfo)
			return a.load()
		}
		a.setStatus(MsgRefreshing, StatusInfo)
		return a.refresh()
	case "g":
		scope := nextOf(scopeCycle, st.InfoFrom)
		a.setStatus(MsgScope(string(scope), ""), StatusInfo)
		return a.setScope(scope, "")
	case "c":
		if i, ok := a.entryList.SelectedItem().(entryItem); ok && i.entry.Feed.Category.ID != "" {
			cat := i.entry.Feed.Category
			a.setStatus(MsgScope("category", cat.Title), StatusInfo)
			return a.setScope(content.ScopeCategory, cat.ID)
		}
		return nil
	}

	var cmd tea.Cmd
	a.entryList, cmd = a.entryList.Update(msg)
	return cmd
}

// handleFilterKey edits the filter string; the list follows every
// keystroke.
func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	st := a.session.Content.Snapshot()
	svc := a.session.Service

	switch msg.String() {
	case "enter":
		a.filterInput.Blur()
		a.view = ViewEntries
		return nil
	case "esc":
		a.filterInput.Blur()
		a.view = ViewEntries
		svc.SetFilter(st.FilterType, st.FilterStatus, a.prevFilter)
		return nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	if v := a.filterInput.Value(); v != st.FilterString {
		svc.SetFilter(st.FilterType, st.FilterStatus, v)
	}
	return cmd
}

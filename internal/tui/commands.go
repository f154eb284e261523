package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/keymap"
	"github.com/pders01/fluxrd/internal/storage"
)

func (a *App) load() tea.Cmd {
	ctx, svc := a.ctx, a.session.Service
	return func() tea.Msg {
		return entriesLoadedMsg{err: wrapErr("load", svc.Load(ctx))}
	}
}

func (a *App) loadMore() tea.Cmd {
	ctx, svc := a.ctx, a.session.Service
	return func() tea.Msg {
		return entriesLoadedMsg{err: wrapErr("load more", svc.LoadMore(ctx))}
	}
}

func (a *App) setScope(scope content.Scope, categoryID string) tea.Cmd {
	ctx, svc := a.ctx, a.session.Service
	return func() tea.Msg {
		return entriesLoadedMsg{err: wrapErr("switch scope", svc.SetScope(ctx, scope, categoryID))}
	}
}

func (a *App) refresh() tea.Cmd {
	ctx, r := a.ctx, a.refresher
	return func() tea.Msg {
		return refreshedMsg{err: wrapErr("refresh", r.RefreshAllFeeds(ctx))}
	}
}

// openEntry runs the read-state transition for e off the update loop.
func (a *App) openEntry(e storage.Entry) tea.Cmd {
	ctx, ctl := a.ctx, a.session.Controller
	return func() tea.Msg {
		return entryOpenedMsg{entry: e, err: ctl.Open(ctx, e, content.WithArticleFocused(true))}
	}
}

func (a *App) toggle(action keymap.Action) tea.Cmd {
	ctx, ctl := a.ctx, a.session.Controller
	return func() tea.Msg {
		var err error
		if action == keymap.ActionToggleStarred {
			err = ctl.ToggleStarred(ctx)
		} else {
			err = ctl.ToggleStatus(ctx)
		}
		return entryToggledMsg{action: action, err: err}
	}
}

func (a *App) renderEntry(e storage.Entry) tea.Cmd {
	r, width := a.renderer, a.width
	return func() tea.Msg {
		out, err := r.Render(e, width)
		return entryRenderedMsg{id: e.ID, content: out, err: err}
	}
}

func (a *App) openLink(e *storage.Entry) tea.Cmd {
	if e == nil {
		return nil
	}
	if a.opener == nil {
		a.setStatus(MsgNoOpener, StatusInfo)
		return nil
	}
	o, link := a.opener, e.URL
	return func() tea.Msg {
		return linkOpenedMsg{err: wrapErr("open link", o.Open(link))}
	}
}

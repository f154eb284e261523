// Package tui is the interactive terminal reader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fluxrd/internal/app"
	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/keymap"
	"github.com/pders01/fluxrd/internal/render"
	"github.com/pders01/fluxrd/internal/storage"
)

// Refresher pulls new entries into the local cache.
type Refresher interface {
	RefreshAllFeeds(ctx context.Context) error
}

// Opener hands an entry link to an external application.
type Opener interface {
	Open(url string) error
}

type syncKey struct {
	content, hidden, settings uint64
}

type App struct {
	ctx       context.Context
	session   *app.Session
	bindings  keymap.Bindings
	keys      *keymap.Dispatcher
	release   func()
	pending   []tea.Cmd
	renderer  *render.Renderer
	refresher Refresher
	opener    Opener
	styles    Styles

	entryList   list.Model
	viewport    viewport.Model
	filterInput textinput.Model
	prevFilter  string

	view   View
	width  int
	height int

	entries    []storage.Entry
	synced     syncKey
	activeSig  string
	status     string
	statusKind StatusKind
}

// NewApp builds the reader for a session. refresher may be nil when the
// source refreshes feeds on its own.
func NewApp(ctx context.Context, session *app.Session, cfg *config.Config, bindings keymap.Bindings, refresher Refresher) *App {
	styles := NewStyles(cfg.UI.Colors)

	entryList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	entryList.SetShowTitle(false)
	entryList.SetShowStatusBar(false)
	entryList.SetFilteringEnabled(false)
	entryList.SetShowHelp(false)
	entryList.KeyMap.Quit.SetEnabled(false)

	fi := textinput.New()
	fi.Placeholder = "Filter entries..."
	fi.Prompt = "/ "

	a := &App{
		ctx:         ctx,
		session:     session,
		bindings:    bindings,
		keys:        keymap.NewDispatcher(bindings),
		release:     func() {},
		renderer:    render.NewRenderer(cfg.UI.Article.WordWrapMinWidth, cfg.UI.Article.WordWrapMaxWidth),
		refresher:   refresher,
		styles:      styles,
		entryList:   entryList,
		viewport:    viewport.New(0, 0),
		filterInput: fi,
		view:        ViewEntries,
	}
	return a
}

func (a *App) SetOpener(o Opener) {
	a.opener = o
}

func (a *App) Init() tea.Cmd {
	a.setStatus(MsgLoading, StatusInfo)
	return tea.Batch(tea.EnterAltScreen, a.load())
}

func (a *App) bodyHeight() int {
	return max(a.height-4, 1)
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

func (a *App) setErr(err error) {
	a.setStatus("✗ "+err.Error(), StatusError)
}

func (a *App) activeEntry() *storage.Entry {
	return a.session.Content.Snapshot().ActiveContent
}

// queue collects commands produced by key handlers during a dispatch.
func (a *App) queue(cmd tea.Cmd) {
	if cmd != nil {
		a.pending = append(a.pending, cmd)
	}
}

func (a *App) flush() tea.Cmd {
	cmds := a.pending
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) quit() tea.Cmd {
	a.release()
	return tea.Quit
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.entryList.SetSize(msg.Width, a.bodyHeight())
		a.viewport.Width = msg.Width
		a.viewport.Height = a.bodyHeight()
		a.filterInput.Width = max(msg.Width-8, 10)
		if active := a.activeEntry(); active != nil && a.view == ViewReader {
			cmds = append(cmds, a.renderEntry(*active))
		}

	case tea.KeyMsg:
		cmds = append(cmds, a.HandleKey(msg))

	case entriesLoadedMsg:
		if msg.err != nil {
			a.setErr(msg.err)
		} else {
			st := a.session.Content.Snapshot()
			total := st.Total
			if st.FilterStatus == content.FilterUnread {
				total = st.UnreadCount
			}
			a.setStatus(MsgLoaded(len(a.session.Pipeline.Entries()), total), StatusInfo)
		}

	case entryOpenedMsg:
		switch {
		case errors.Is(msg.err, content.ErrInFlight):
			a.setStatus(MsgInFlight, StatusInfo)
		case msg.err != nil:
			a.setErr(msg.err)
		default:
			a.view = ViewReader
			a.viewport.SetContent(a.styles.Muted.Render(MsgOpening))
			a.viewport.GotoTop()
			a.setStatus("", StatusInfo)
			cmds = append(cmds, a.renderEntry(msg.entry))
		}

	case entryToggledMsg:
		switch {
		case errors.Is(msg.err, content.ErrInFlight):
			a.setStatus(MsgInFlight, StatusInfo)
		case msg.err != nil:
			a.setErr(msg.err)
		default:
			a.setStatus(toggleStatus(msg.action, a.activeEntry()), StatusSuccess)
		}

	case entryRenderedMsg:
		if active := a.activeEntry(); active != nil && active.ID == msg.id {
			if msg.err != nil {
				a.viewport.SetContent(fmt.Sprintf("%s\n\n%s", active.Title, msg.err))
			} else {
				a.viewport.SetContent(msg.content)
			}
		}

	case linkOpenedMsg:
		if msg.err != nil {
			a.setErr(msg.err)
		} else {
			a.setStatus(MsgLinkOpened, StatusSuccess)
		}

	case refreshedMsg:
		if msg.err != nil {
			a.setErr(msg.err)
		}
		cmds = append(cmds, a.load())
	}

	cmds = append(cmds, a.sync())
	return a, tea.Batch(cmds...)
}

func toggleStatus(action keymap.Action, active *storage.Entry) string {
	if active == nil {
		return ""
	}
	if action == keymap.ActionToggleStarred {
		if active.Starred {
			return MsgStarred
		}
		return MsgUnstarred
	}
	if active.Status == storage.StatusRead {
		return MsgMarkedRead
	}
	return MsgMarkedUnread
}

func entrySignature(e *storage.Entry) string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%t", e.ID, e.Status, e.Starred)
}

// sync refreshes the list from the pipeline and re-binds the article keys
// whenever the visible list or the active entry changed.
func (a *App) sync() tea.Cmd {
	entries := a.session.Pipeline.Entries()
	c, h, s := a.session.Pipeline.Generation()
	key := syncKey{content: c, hidden: h, settings: s}
	active := a.activeEntry()
	sig := entrySignature(active)

	if key == a.synced && sig == a.activeSig && a.keys.Bound() {
		return nil
	}

	var cmds []tea.Cmd
	if key != a.synced {
		items := make([]list.Item, len(entries))
		for i, e := range entries {
			items[i] = entryItem{entry: e, styles: &a.styles}
		}
		cmds = append(cmds, a.entryList.SetItems(items))
	}
	if active != nil && a.view == ViewReader && sig != a.activeSig && strings.HasPrefix(a.activeSig, active.ID+"/") {
		cmds = append(cmds, a.renderEntry(*active))
	}
	if active == nil && a.view == ViewReader {
		a.view = ViewEntries
	}

	a.entries = entries
	a.synced = key
	a.activeSig = sig

	a.release()
	a.release = a.keys.Bind(keymap.Snapshot{Active: active, Entries: entries}, keymap.Handlers{
		Close:         a.closeEntry,
		Open:          func(e storage.Entry) { a.queue(a.openEntry(e)) },
		ToggleRead:    func() { a.queue(a.toggle(keymap.ActionToggleRead)) },
		ToggleStarred: func() { a.queue(a.toggle(keymap.ActionToggleStarred)) },
	})
	return tea.Batch(cmds...)
}

func (a *App) closeEntry() {
	active := a.activeEntry()
	a.session.Controller.Close()
	a.view = ViewEntries
	if active == nil {
		return
	}
	for i, e := range a.entries {
		if e.ID == active.ID {
			a.entryList.Select(i)
			break
		}
	}
}

func (a *App) View() string {
	st := a.session.Content.Snapshot()

	var body string
	switch a.view {
	case ViewReader:
		body = a.viewport.View()
	case ViewFilter:
		body = lipgloss.JoinVertical(lipgloss.Top,
			a.styles.Input.Width(max(a.width-4, 10)).Render(a.filterInput.View()),
			a.entryList.View(),
		)
	default:
		if len(a.entries) == 0 && !st.Loading {
			body = a.renderCentered(a.styles.welcome("Nothing here. Press g to switch scope or r to refresh."))
		} else {
			body = a.entryList.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Top,
		a.renderHeader(a.headerTitle(st), a.headerSubtitle(st)),
		lipgloss.NewStyle().Height(a.bodyHeight()).MaxHeight(a.bodyHeight()).Render(body),
		a.renderStatusBar(),
	)
}

func (a *App) headerTitle(st content.State) string {
	title := AppName + " › " + string(st.InfoFrom)
	if st.InfoFrom == content.ScopeCategory {
		title += " " + a.session.Service.CategoryID()
	}
	if a.view == ViewReader && st.ActiveContent != nil {
		title += " › " + st.ActiveContent.Title
	}
	return title
}

func (a *App) headerSubtitle(st content.State) string {
	if a.view == ViewReader && st.ActiveContent != nil {
		return render.TruncateMiddle(st.ActiveContent.URL, a.width-2)
	}
	parts := []string{
		string(st.FilterStatus),
		"match " + string(st.FilterType),
		fmt.Sprintf("%d unread", st.UnreadCount),
		fmt.Sprintf("%d total", st.Total),
	}
	if st.FilterString != "" {
		parts = append(parts, fmt.Sprintf("%q", st.FilterString))
	}
	if (st.FilterStatus == content.FilterUnread && st.LoadMoreUnreadVisible) ||
		(st.FilterStatus == content.FilterAll && st.LoadMoreVisible) {
		parts = append(parts, "L for more")
	}
	return strings.Join(parts, " • ")
}

func (a *App) renderStatusBar() string {
	separator := a.styles.Separator.Render(strings.Repeat("─", max(a.width, 1)))
	line := a.status
	style := a.styles.Status[a.statusKind]
	if line == "" {
		line = strings.Join(a.helpForView(), " • ")
		style = a.styles.Help
	}
	return lipgloss.JoinVertical(lipgloss.Top, separator, style.Padding(0, 1).Render(render.Truncate(line, max(a.width-2, 1))))
}

func (a *App) helpForView() []string {
	keys := func(action keymap.Action) string {
		return strings.Join(a.bindings.Keys(action), "/")
	}
	switch a.view {
	case ViewReader:
		return []string{
			keys(keymap.ActionPrev) + " prev",
			keys(keymap.ActionNext) + " next",
			keys(keymap.ActionToggleRead) + " read",
			keys(keymap.ActionToggleStarred) + " star",
			"o link",
			keys(keymap.ActionClose) + " close",
		}
	case ViewFilter:
		return []string{"enter apply", "esc cancel"}
	default:
		return []string{"enter open", "/ filter", "tab status", "t match", "g scope", "c category", "o link", "L more", "r refresh", "q quit"}
	}
}

type entryItem struct {
	entry  storage.Entry
	styles *Styles
}

func (i entryItem) Title() string {
	title := i.entry.Title
	if i.entry.Starred {
		title = i.styles.Starred.Render("★ ") + title
	}
	if i.entry.Status == storage.StatusUnread {
		return i.styles.Unread.Render("● " + title)
	}
	return i.styles.Read.Render(title)
}

func (i entryItem) Description() string {
	parts := []string{}
	if i.entry.Feed.Title != "" {
		parts = append(parts, i.entry.Feed.Title)
	}
	if !i.entry.Published.IsZero() {
		parts = append(parts, i.entry.Published.Format("Jan 2, 15:04"))
	}
	desc := i.styles.Time.Render(strings.Join(parts, " • "))
	if text := render.PlainText(i.entry.Content); text != "" {
		desc += i.styles.Muted.Render(" • " + render.Truncate(text, 80))
	}
	return desc
}

func (i entryItem) FilterValue() string { return i.entry.Title }

type entriesLoadedMsg struct {
	err error
}

type entryOpenedMsg struct {
	entry storage.Entry
	err   error
}

type entryToggledMsg struct {
	action keymap.Action
	err    error
}

type entryRenderedMsg struct {
	id      string
	content string
	err     error
}

type refreshedMsg struct {
	err error
}

type linkOpenedMsg struct {
	err error
}

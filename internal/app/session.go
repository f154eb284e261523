package app

import (
	"fmt"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/dedup"
	"github.com/pders01/fluxrd/internal/unread"
)

// Session is one reading session: the article view, its inputs and the
// collaborators that change it.
type Session struct {
	Content    *content.Store
	Settings   *content.SettingsState
	Hidden     *content.HiddenFeedState
	Counters   *unread.Counters
	Registry   *dedup.Registry
	Pipeline   *content.Pipeline
	Controller *content.Controller
	Service    *Service
}

// SettingsFromConfig converts the [settings] section.
func SettingsFromConfig(c config.SettingsConfig) content.Settings {
	return content.Settings{
		ShowStatus:       content.FilterStatus(c.ShowStatus),
		HomePage:         content.Scope(c.HomePage),
		ShowAllFeeds:     c.ShowAllFeeds,
		RemoveDuplicates: dedup.Strategy(c.RemoveDuplicates),
		PageSize:         c.PageSize,
	}
}

// NewRegistry returns a registry with the title and url strategies.
func NewRegistry() (*dedup.Registry, error) {
	r := dedup.NewRegistry()
	if err := r.Register("title", dedup.TitleKey); err != nil {
		return nil, err
	}
	if err := r.Register("url", dedup.URLKey); err != nil {
		return nil, err
	}
	return r, nil
}

func NewSession(settings content.Settings, backend Backend, hiddenFeedIDs []string) (*Session, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to register dedup strategies: %w", err)
	}

	store := content.NewStore(settings)
	settingsState := content.NewSettingsState(settings)
	hidden := content.NewHiddenFeedState(hiddenFeedIDs...)
	counters := unread.New()

	return &Session{
		Content:    store,
		Settings:   settingsState,
		Hidden:     hidden,
		Counters:   counters,
		Registry:   registry,
		Pipeline:   content.NewPipeline(store, hidden, settingsState, registry),
		Controller: content.NewController(store, backend, counters),
		Service:    NewService(store, backend, settingsState, counters),
	}, nil
}

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pders01/fluxrd/internal/app"
	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/feed"
	"github.com/pders01/fluxrd/internal/miniflux"
	"github.com/pders01/fluxrd/internal/search"
	"github.com/pders01/fluxrd/internal/storage"
	"github.com/pders01/fluxrd/internal/validation"
)

var errServerManaged = errors.New("feeds are managed by the Miniflux server in miniflux mode")

// env holds everything a command needs once config is loaded.
type env struct {
	cfg     *config.Config
	store   *storage.Store
	index   *search.Index
	backend app.Backend
	// nil in miniflux mode
	manager *feed.Manager
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.dbPath != "" {
		p, err := validation.ExpandPath(o.dbPath)
		if err != nil {
			return nil, fmt.Errorf("invalid --db: %w", err)
		}
		cfg.Database.Path = p
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// open loads config and opens the cache, the search index and the backend
// for the configured source.
func (o *rootOptions) open() (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, err
	}

	dbPath, err := validation.EnsureParentDir(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStoreWithTimeout(dbPath, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	index, err := search.NewIndex(cfg.Database.SearchIndex)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	e := &env{cfg: cfg, store: store, index: index}
	switch cfg.Source.Mode {
	case config.SourceMiniflux:
		client := miniflux.NewClient(cfg.Miniflux.URL, cfg.Miniflux.Token, &http.Client{Timeout: cfg.Miniflux.Timeout})
		e.backend = app.WithIndexer(app.NewRemoteBackend(client), index)
	default:
		e.manager = feed.NewManager(store, cfg)
		e.manager.SetIndexer(index)
		e.backend = app.NewLocalBackend(store)
	}
	debuglog.WithFields(map[string]any{"mode": cfg.Source.Mode, "db": cfg.Database.Path}).Infof("environment ready")
	return e, nil
}

func (e *env) session() (*app.Session, error) {
	hidden, err := e.store.HiddenFeedIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to load hidden feeds: %w", err)
	}
	return app.NewSession(app.SettingsFromConfig(e.cfg.Settings), e.backend, hidden)
}

func (e *env) requireLocal() error {
	if e.manager == nil {
		return errServerManaged
	}
	return nil
}

func (e *env) Close() error {
	return errors.Join(e.index.Close(), e.store.Close(), debuglog.Close())
}

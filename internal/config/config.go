package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/fluxrd/internal/validation"
)

const (
	SourceLocal    = "local"
	SourceMiniflux = "miniflux"
)

type Config struct {
	Source   SourceConfig      `mapstructure:"source"`
	Miniflux MinifluxConfig    `mapstructure:"miniflux"`
	Database DatabaseConfig    `mapstructure:"database"`
	Feed     FeedConfig        `mapstructure:"feed"`
	Settings SettingsConfig    `mapstructure:"settings"`
	UI       UIConfig          `mapstructure:"ui"`
	Keys     map[string]string `mapstructure:"keys"`
	Media    MediaConfig       `mapstructure:"media"`
	Log      LogConfig         `mapstructure:"log"`
}

type SourceConfig struct {
	// Mode is "local" for the bbolt cache or "miniflux" for a server.
	Mode string `mapstructure:"mode"`
}

type MinifluxConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type FeedConfig struct {
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	DefaultRetryAfter time.Duration `mapstructure:"default_retry_after"`
	UserAgent         string        `mapstructure:"user_agent"`
	Workers           int           `mapstructure:"workers"`
}

// SettingsConfig holds the reading preferences.
type SettingsConfig struct {
	ShowStatus       string `mapstructure:"show_status"`
	HomePage         string `mapstructure:"home_page"`
	ShowAllFeeds     bool   `mapstructure:"show_all_feeds"`
	RemoveDuplicates string `mapstructure:"remove_duplicates"`
	PageSize         int    `mapstructure:"page_size"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary string `mapstructure:"primary"`
	Accent  string `mapstructure:"accent"`
	Text    string `mapstructure:"text"`
	Muted   string `mapstructure:"muted"`
	Error   string `mapstructure:"error"`
	Success string `mapstructure:"success"`
}

type ArticleConfig struct {
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

// MediaConfig lists candidate applications per link kind. The first one
// found on PATH is used; links without a match go to DefaultOpener, or the
// system opener when that is empty.
type MediaConfig struct {
	DefaultOpener string   `mapstructure:"default_opener"`
	Video         []string `mapstructure:"video"`
	Audio         []string `mapstructure:"audio"`
	Image         []string `mapstructure:"image"`
	PDF           []string `mapstructure:"pdf"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Mode: SourceLocal},
		Miniflux: MinifluxConfig{
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "~/.fluxrd/fluxrd.db",
			Timeout:     1 * time.Second,
			SearchIndex: "~/.fluxrd/index.bleve",
		},
		Feed: FeedConfig{
			HTTPTimeout:       30 * time.Second,
			RefreshInterval:   5 * time.Minute,
			DefaultRetryAfter: 15 * time.Minute,
			UserAgent:         "fluxrd/1.0 (https://github.com/pders01/fluxrd)",
			Workers:           5,
		},
		Settings: SettingsConfig{
			ShowStatus:       "unread",
			HomePage:         "all",
			RemoveDuplicates: "none",
			PageSize:         100,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary: "#FF6B6B",
				Accent:  "#4ECDC4",
				Text:    "#EAEAEA",
				Muted:   "#94A3B8",
				Error:   "#F87171",
				Success: "#4ADE80",
			},
			Article: ArticleConfig{
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Keys: map[string]string{
			"close":          "esc",
			"prev":           "left",
			"next":           "right",
			"toggle_read":    "m",
			"toggle_starred": "s",
		},
		Media: MediaConfig{
			Video: []string{"mpv", "vlc"},
			Audio: []string{"mpv", "vlc"},
		},
		Log: LogConfig{Level: "off"},
	}
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".config", "fluxrd", "config.toml")
	}
	return filepath.Join(home, ".config", "fluxrd", "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.mode", cfg.Source.Mode)

	v.SetDefault("miniflux.url", cfg.Miniflux.URL)
	v.SetDefault("miniflux.token", cfg.Miniflux.Token)
	v.SetDefault("miniflux.timeout", cfg.Miniflux.Timeout)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.refresh_interval", cfg.Feed.RefreshInterval)
	v.SetDefault("feed.default_retry_after", cfg.Feed.DefaultRetryAfter)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.workers", cfg.Feed.Workers)

	v.SetDefault("settings.show_status", cfg.Settings.ShowStatus)
	v.SetDefault("settings.home_page", cfg.Settings.HomePage)
	v.SetDefault("settings.show_all_feeds", cfg.Settings.ShowAllFeeds)
	v.SetDefault("settings.remove_duplicates", cfg.Settings.RemoveDuplicates)
	v.SetDefault("settings.page_size", cfg.Settings.PageSize)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.colors.success", cfg.UI.Colors.Success)
	v.SetDefault("ui.article.word_wrap_max_width", cfg.UI.Article.WordWrapMaxWidth)
	v.SetDefault("ui.article.word_wrap_min_width", cfg.UI.Article.WordWrapMinWidth)

	for action, keys := range cfg.Keys {
		v.SetDefault("keys."+action, keys)
	}

	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)
	v.SetDefault("media.video", cfg.Media.Video)
	v.SetDefault("media.audio", cfg.Media.Audio)
	v.SetDefault("media.image", cfg.Media.Image)
	v.SetDefault("media.pdf", cfg.Media.PDF)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
}

// Load reads configPath, or the default location when it is empty.
// A missing default file is not an error. FLUXRD_SECTION_KEY environment
// variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		expanded, err := homedir.Expand(configPath)
		if err != nil {
			return nil, fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLUXRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := expandPaths(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func expandPaths(cfg *Config) error {
	for _, p := range []*string{&cfg.Database.Path, &cfg.Database.SearchIndex, &cfg.Log.Path} {
		if *p == "" {
			continue
		}
		expanded, err := validation.ExpandPath(*p)
		if err != nil {
			return fmt.Errorf("invalid path in config: %w", err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case SourceLocal:
	case SourceMiniflux:
		if c.Miniflux.URL == "" {
			return fmt.Errorf("miniflux.url is required in miniflux mode")
		}
		normalized, err := validation.NewServerURLValidator().ValidateAndNormalize(c.Miniflux.URL)
		if err != nil {
			return fmt.Errorf("miniflux.url: %w", err)
		}
		c.Miniflux.URL = normalized
		if c.Miniflux.Token == "" {
			return fmt.Errorf("miniflux.token is required in miniflux mode")
		}
	default:
		return fmt.Errorf("source.mode must be %q or %q, got %q", SourceLocal, SourceMiniflux, c.Source.Mode)
	}

	switch c.Settings.ShowStatus {
	case "all", "unread":
	default:
		return fmt.Errorf("settings.show_status must be all or unread, got %q", c.Settings.ShowStatus)
	}
	switch c.Settings.HomePage {
	case "all", "today", "starred", "history":
	default:
		return fmt.Errorf("settings.home_page must be all, today, starred or history, got %q", c.Settings.HomePage)
	}
	if c.Settings.PageSize <= 0 {
		return fmt.Errorf("settings.page_size must be positive, got %d", c.Settings.PageSize)
	}
	return nil
}

// Save writes config as TOML. Durations are written in their string form.
func Save(config *Config, path string) error {
	doc := map[string]any{
		"source": map[string]any{"mode": config.Source.Mode},
		"miniflux": map[string]any{
			"url":     config.Miniflux.URL,
			"token":   config.Miniflux.Token,
			"timeout": config.Miniflux.Timeout.String(),
		},
		"database": map[string]any{
			"path":         config.Database.Path,
			"timeout":      config.Database.Timeout.String(),
			"search_index": config.Database.SearchIndex,
		},
		"feed": map[string]any{
			"http_timeout":        config.Feed.HTTPTimeout.String(),
			"refresh_interval":    config.Feed.RefreshInterval.String(),
			"default_retry_after": config.Feed.DefaultRetryAfter.String(),
			"user_agent":          config.Feed.UserAgent,
			"workers":             config.Feed.Workers,
		},
		"settings": map[string]any{
			"show_status":       config.Settings.ShowStatus,
			"home_page":         config.Settings.HomePage,
			"show_all_feeds":    config.Settings.ShowAllFeeds,
			"remove_duplicates": config.Settings.RemoveDuplicates,
			"page_size":         config.Settings.PageSize,
		},
		"ui": map[string]any{
			"colors": map[string]any{
				"primary": config.UI.Colors.Primary,
				"accent":  config.UI.Colors.Accent,
				"text":    config.UI.Colors.Text,
				"muted":   config.UI.Colors.Muted,
				"error":   config.UI.Colors.Error,
				"success": config.UI.Colors.Success,
			},
			"article": map[string]any{
				"word_wrap_max_width": config.UI.Article.WordWrapMaxWidth,
				"word_wrap_min_width": config.UI.Article.WordWrapMinWidth,
			},
		},
		"keys": config.Keys,
		"media": map[string]any{
			"default_opener": config.Media.DefaultOpener,
			"video":          nonNil(config.Media.Video),
			"audio":          nonNil(config.Media.Audio),
			"image":          nonNil(config.Media.Image),
			"pdf":            nonNil(config.Media.PDF),
		},
		"log": map[string]any{
			"level": config.Log.Level,
			"path":  config.Log.Path,
		},
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path, err = validation.EnsureParentDir(path)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// nonNil keeps empty lists in the written file so users see the key.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Source.Mode != SourceLocal {
		t.Errorf("Source.Mode = %s, want local", cfg.Source.Mode)
	}
	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}
	if cfg.Feed.HTTPTimeout != 30*time.Second {
		t.Errorf("Feed.HTTPTimeout = %v, want 30s", cfg.Feed.HTTPTimeout)
	}
	if cfg.Feed.RefreshInterval != 5*time.Minute {
		t.Errorf("Feed.RefreshInterval = %v, want 5m", cfg.Feed.RefreshInterval)
	}
	if cfg.Settings.ShowStatus != "unread" {
		t.Errorf("Settings.ShowStatus = %s, want unread", cfg.Settings.ShowStatus)
	}
	if cfg.Settings.RemoveDuplicates != "none" {
		t.Errorf("Settings.RemoveDuplicates = %s, want none", cfg.Settings.RemoveDuplicates)
	}
	if cfg.Keys["toggle_read"] != "m" {
		t.Errorf("Keys[toggle_read] = %s, want m", cfg.Keys["toggle_read"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.RefreshInterval != 5*time.Minute {
		t.Errorf("Feed.RefreshInterval = %v, want 5m", cfg.Feed.RefreshInterval)
	}
	if !filepath.IsAbs(cfg.Database.Path) || strings.HasPrefix(cfg.Database.Path, "~") {
		t.Errorf("Database.Path should be expanded, got %s", cfg.Database.Path)
	}
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[source]
mode = "miniflux"

[miniflux]
url = "http://localhost:8080"
token = "abc"

[database]
path = "/tmp/test.db"
timeout = "10s"

[feed]
http_timeout = "60s"
refresh_interval = "1h"

[settings]
show_status = "all"
remove_duplicates = "title"
page_size = 25

[ui.colors]
primary = "#FF0000"

[keys]
prev = "left,h"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Mode != SourceMiniflux {
		t.Errorf("Source.Mode = %s, want miniflux", cfg.Source.Mode)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s, want '/tmp/test.db'", cfg.Database.Path)
	}
	if cfg.Database.Timeout != 10*time.Second {
		t.Errorf("Database.Timeout = %v, want 10s", cfg.Database.Timeout)
	}
	if cfg.Feed.RefreshInterval != 1*time.Hour {
		t.Errorf("Feed.RefreshInterval = %v, want 1h", cfg.Feed.RefreshInterval)
	}
	if cfg.Feed.Workers != 5 {
		t.Errorf("Feed.Workers = %d, want default 5", cfg.Feed.Workers)
	}
	if cfg.Settings.ShowStatus != "all" || cfg.Settings.RemoveDuplicates != "title" || cfg.Settings.PageSize != 25 {
		t.Errorf("unexpected settings %+v", cfg.Settings)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Accent != "#4ECDC4" {
		t.Errorf("UI.Colors.Accent = %s, want default", cfg.UI.Colors.Accent)
	}
	if cfg.Keys["prev"] != "left,h" || cfg.Keys["next"] != "right" {
		t.Errorf("unexpected keys %v", cfg.Keys)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if cfg.Miniflux.URL != "http://localhost:8080" {
		t.Errorf("Miniflux.URL = %s", cfg.Miniflux.URL)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(configPath, []byte("[miniflux]\ntoken = \"file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FLUXRD_MINIFLUX_TOKEN", "from-env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Miniflux.Token != "from-env" {
		t.Errorf("Miniflux.Token = %s, want from-env", cfg.Miniflux.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown mode", func(c *Config) { c.Source.Mode = "rss" }, "source.mode"},
		{"miniflux without url", func(c *Config) { c.Source.Mode = SourceMiniflux; c.Miniflux.Token = "t" }, "miniflux.url is required"},
		{"miniflux without token", func(c *Config) { c.Source.Mode = SourceMiniflux; c.Miniflux.URL = "https://rss.example.org" }, "miniflux.token"},
		{"bad miniflux url", func(c *Config) { c.Source.Mode = SourceMiniflux; c.Miniflux.URL = "ftp://x"; c.Miniflux.Token = "t" }, "miniflux.url"},
		{"bad status", func(c *Config) { c.Settings.ShowStatus = "read" }, "show_status"},
		{"bad home page", func(c *Config) { c.Settings.HomePage = "category" }, "home_page"},
		{"bad page size", func(c *Config) { c.Settings.PageSize = 0 }, "page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = "/test/path.db"
	cfg.Feed.UserAgent = "test-save-agent"
	cfg.Feed.HTTPTimeout = 45 * time.Second
	cfg.Settings.ShowAllFeeds = true
	cfg.Keys["next"] = "l"
	cfg.Media.Image = []string{"imv", "feh"}

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	if err := Save(cfg, savePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Loaded Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Feed.UserAgent != cfg.Feed.UserAgent {
		t.Errorf("Loaded Feed.UserAgent = %s, want %s", loaded.Feed.UserAgent, cfg.Feed.UserAgent)
	}
	if loaded.Feed.HTTPTimeout != 45*time.Second {
		t.Errorf("Loaded Feed.HTTPTimeout = %v, want 45s", loaded.Feed.HTTPTimeout)
	}
	if !loaded.Settings.ShowAllFeeds {
		t.Error("Loaded Settings.ShowAllFeeds should be true")
	}
	if loaded.Keys["next"] != "l" {
		t.Errorf("Loaded Keys[next] = %s, want l", loaded.Keys["next"])
	}
	if strings.Join(loaded.Media.Image, ",") != "imv,feh" {
		t.Errorf("Loaded Media.Image = %v, want [imv feh]", loaded.Media.Image)
	}
	if strings.Join(loaded.Media.Video, ",") != "mpv,vlc" {
		t.Errorf("Loaded Media.Video = %v, want [mpv vlc]", loaded.Media.Video)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if err := GenerateDefaultConfig(configPath); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "5m0s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Settings.PageSize != 100 {
		t.Errorf("Generated config has Settings.PageSize = %d, want 100", cfg.Settings.PageSize)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg.Database.Path != ":memory:" {
		t.Errorf("TestConfig Database.Path = %s, want ':memory:'", cfg.Database.Path)
	}
	if cfg.Feed.UserAgent != "fluxrd-test/1.0" {
		t.Errorf("TestConfig Feed.UserAgent = %s, want 'fluxrd-test/1.0'", cfg.Feed.UserAgent)
	}
}

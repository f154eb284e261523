package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Feed = FeedConfig{
		HTTPTimeout:       5 * time.Second,
		RefreshInterval:   1 * time.Minute,
		DefaultRetryAfter: 5 * time.Minute,
		UserAgent:         "fluxrd-test/1.0",
		Workers:           2,
	}
	return cfg
}

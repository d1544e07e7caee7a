package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "bolt",
			Path:    ":memory:", // Use in-memory store for tests
			Timeout: 1 * time.Second,
		},
		API: APIConfig{
			BaseURL:      "http://127.0.0.1",
			HTTPTimeout:  5 * time.Second,
			UserAgent:    "feedcore-test/1.0",
			Format:       FormatJSON,
			PageSize:     10,
			AllowPrivate: true,
		},
		Cache: CacheConfig{
			MaxAge:  7 * 24 * time.Hour,
			Enabled: true,
		},
		Log: LogConfig{Level: "off"},
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	FormatJSON = "json"
	FormatRSS  = "rss"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	// Format is json for the image feed API or rss for an RSS/Atom
	// document at BaseURL.
	Format   string `mapstructure:"format"`
	PageSize int    `mapstructure:"page_size"`
	// AllowPrivate permits localhost and private network API hosts.
	AllowPrivate bool `mapstructure:"allow_private"`
	// ReportBothErrors makes a load whose remote and local attempts both
	// fail report both causes instead of only the last one.
	ReportBothErrors bool `mapstructure:"report_both_errors"`
}

type CacheConfig struct {
	MaxAge  time.Duration `mapstructure:"max_age"`
	Enabled bool          `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Driver:      "bolt",
			Path:        filepath.Join(homeDir, ".feedcore", "cache.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".feedcore", "index.bleve"),
		},
		API: APIConfig{
			BaseURL:     "https://api.example.com",
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "feedcore/1.0 (https://github.com/pders01/feedcore)",
			Format:      FormatJSON,
			PageSize:    10,
		},
		Cache: CacheConfig{
			MaxAge:  7 * 24 * time.Hour,
			Enabled: true,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".feedcore", "feedcore.log"),
		},
	}
}

// DefaultPath returns ~/.config/feedcore/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "feedcore", "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.format", cfg.API.Format)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.allow_private", cfg.API.AllowPrivate)
	v.SetDefault("api.report_both_errors", cfg.API.ReportBothErrors)

	v.SetDefault("cache.max_age", cfg.Cache.MaxAge)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

// Load reads the config file at configPath, or config.toml from
// ~/.config/feedcore and the working directory when configPath is empty.
// FEEDCORE_ prefixed environment variables override file values, e.g.
// FEEDCORE_API_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FEEDCORE")
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

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.API.Format {
	case FormatJSON, FormatRSS:
	default:
		return fmt.Errorf("api.format must be %q or %q, got %q", FormatJSON, FormatRSS, c.API.Format)
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be positive, got %s", c.Cache.MaxAge)
	}
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// fileConfig is the on-disk shape, with durations as strings.
type fileConfig struct {
	Database struct {
		Driver      string `toml:"driver"`
		Path        string `toml:"path"`
		Timeout     string `toml:"timeout"`
		SearchIndex string `toml:"search_index"`
	} `toml:"database"`
	API struct {
		BaseURL          string `toml:"base_url"`
		HTTPTimeout      string `toml:"http_timeout"`
		UserAgent        string `toml:"user_agent"`
		Format           string `toml:"format"`
		PageSize         int    `toml:"page_size"`
		AllowPrivate     bool   `toml:"allow_private"`
		ReportBothErrors bool   `toml:"report_both_errors"`
	} `toml:"api"`
	Cache struct {
		MaxAge  string `toml:"max_age"`
		Enabled bool   `toml:"enabled"`
	} `toml:"cache"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

func toFile(c *Config) fileConfig {
	var f fileConfig
	f.Database.Driver = c.Database.Driver
	f.Database.Path = c.Database.Path
	f.Database.Timeout = c.Database.Timeout.String()
	f.Database.SearchIndex = c.Database.SearchIndex
	f.API.BaseURL = c.API.BaseURL
	f.API.HTTPTimeout = c.API.HTTPTimeout.String()
	f.API.UserAgent = c.API.UserAgent
	f.API.Format = c.API.Format
	f.API.PageSize = c.API.PageSize
	f.API.AllowPrivate = c.API.AllowPrivate
	f.API.ReportBothErrors = c.API.ReportBothErrors
	f.Cache.MaxAge = c.Cache.MaxAge.String()
	f.Cache.Enabled = c.Cache.Enabled
	f.Log.Level = c.Log.Level
	f.Log.File = c.Log.File
	return f
}

// Encode renders the config as TOML in the same shape Load reads.
func Encode(config *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(toFile(config)); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

func Save(config *Config, path string) error {
	v := viper.New()

	f := toFile(config)
	v.Set("database", map[string]any{
		"driver":       f.Database.Driver,
		"path":         f.Database.Path,
		"timeout":      f.Database.Timeout,
		"search_index": f.Database.SearchIndex,
	})
	v.Set("api", map[string]any{
		"base_url":           f.API.BaseURL,
		"http_timeout":       f.API.HTTPTimeout,
		"user_agent":         f.API.UserAgent,
		"format":             f.API.Format,
		"page_size":          f.API.PageSize,
		"allow_private":      f.API.AllowPrivate,
		"report_both_errors": f.API.ReportBothErrors,
	})
	v.Set("cache", map[string]any{
		"max_age": f.Cache.MaxAge,
		"enabled": f.Cache.Enabled,
	})
	v.Set("log", map[string]any{
		"level": f.Log.Level,
		"file":  f.Log.File,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

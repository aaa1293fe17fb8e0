// Package config loads omviews settings.
// Precedence: environment variables > TOML file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backends and transports.
const (
	BackendEmergent = "emergent"
	BackendMemory   = "memory"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// PathEnv names the config file when --config is not given.
const PathEnv = "OMVIEWS_CONFIG"

// Config holds all configuration for the omviews server.
type Config struct {
	Emergent EmergentConfig `toml:"emergent"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Store    StoreConfig    `toml:"store"`
	Views    ViewsConfig    `toml:"views"`
	Janitor  JanitorConfig  `toml:"janitor"`
}

// EmergentConfig holds Emergent connection details.
type EmergentConfig struct {
	URL       string `toml:"url"`
	Token     string `toml:"token"`      // Project-scoped token (emt_*) or standalone API key.
	ProjectID string `toml:"project_id"` // Optional: explicit project ID (X-Project-ID header).
}

// ServerConfig holds MCP server metadata and transport.
type ServerConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Transport   string `toml:"transport"`
	HTTPAddr    string `toml:"http_addr"`
	CORSOrigins string `toml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// StoreConfig selects the backend and bounds the work done against it.
type StoreConfig struct {
	Backend                string  `toml:"backend"`
	MaxPageSize            int     `toml:"max_page_size"`
	MaxRetries             int     `toml:"max_retries"`
	RequestsPerSecond      float64 `toml:"requests_per_second"` // 0 = unlimited
	LongOutageIntervalMins int     `toml:"long_outage_interval_mins"`
	LongOutageThreshold    int     `toml:"long_outage_threshold"`
}

// ViewsConfig bounds recursive view materialisation.
type ViewsConfig struct {
	MaxDepth int `toml:"max_depth"`
}

// JanitorConfig controls the scheduled anchor sweep.
type JanitorConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      Duration `toml:"interval"`
	DeleteOrphans bool     `toml:"delete_orphans"`
}

// Duration is a time.Duration written as a string ("90s", "1h") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Emergent: EmergentConfig{URL: "http://localhost:3002"},
		Server: ServerConfig{
			Name:        "omviews",
			Version:     "0.1.0",
			Transport:   TransportStdio,
			HTTPAddr:    ":8080",
			CORSOrigins: "*",
		},
		Log: LogConfig{Level: "info"},
		Store: StoreConfig{
			Backend:                BackendEmergent,
			MaxPageSize:            100,
			MaxRetries:             5,
			LongOutageIntervalMins: 5,
			LongOutageThreshold:    20,
		},
		Views:   ViewsConfig{MaxDepth: 10},
		Janitor: JanitorConfig{Interval: Duration{time.Hour}},
	}
}

// Load builds a Config from defaults, the TOML file at path (or $OMVIEWS_CONFIG
// when path is empty; no file is fine) and environment variables.
// Overrides run last, before validation; command-line flags use them.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("reading %s: unknown key %s", path, undecoded[0])
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Emergent.URL = envOr("EMERGENT_URL", c.Emergent.URL)
	c.Emergent.Token = envOr("EMERGENT_TOKEN", envOr("EMERGENT_API_KEY", c.Emergent.Token))
	c.Emergent.ProjectID = envOr("EMERGENT_PROJECT_ID", c.Emergent.ProjectID)
	c.Server.Transport = envOr("OMVIEWS_TRANSPORT", c.Server.Transport)
	c.Server.HTTPAddr = envOr("OMVIEWS_HTTP_ADDR", c.Server.HTTPAddr)
	c.Log.Level = envOr("OMVIEWS_LOG_LEVEL", c.Log.Level)
	c.Store.Backend = envOr("OMVIEWS_STORE", c.Store.Backend)

	if v := os.Getenv("OMVIEWS_MAX_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OMVIEWS_MAX_PAGE_SIZE: %w", err)
		}
		c.Store.MaxPageSize = n
	}
	if v := os.Getenv("OMVIEWS_JANITOR_INTERVAL"); v != "" {
		if err := c.Janitor.Interval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("OMVIEWS_JANITOR_INTERVAL: %w", err)
		}
	}
	return nil
}

// Validate checks that the settings are usable together.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendEmergent, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendEmergent, BackendMemory))
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (want %s or %s)", c.Server.Transport, TransportStdio, TransportHTTP))
	}
	// HTTP callers bring their own bearer token.
	if c.Emergent.Token == "" && c.Store.Backend == BackendEmergent && c.Server.Transport != TransportHTTP {
		errs = append(errs, errors.New("missing required environment variable: EMERGENT_TOKEN or EMERGENT_API_KEY"))
	}
	if c.Store.MaxPageSize <= 0 {
		errs = append(errs, fmt.Errorf("store.max_page_size must be positive, got %d", c.Store.MaxPageSize))
	}
	if c.Views.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("views.max_depth must be positive, got %d", c.Views.MaxDepth))
	}
	if c.Janitor.Enabled && c.Janitor.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("janitor.interval must be positive, got %s", c.Janitor.Interval))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

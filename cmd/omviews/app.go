package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/emergent-company/omviews/internal/config"
	"github.com/emergent-company/omviews/internal/content"
	"github.com/emergent-company/omviews/internal/emergent"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/handlers/collections"
	"github.com/emergent-company/omviews/internal/handlers/contactdetails"
	"github.com/emergent-company/omviews/internal/handlers/solutions"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/store/memstore"
	colltools "github.com/emergent-company/omviews/internal/tools/collections"
	"github.com/emergent-company/omviews/internal/tools/contacts"
	"github.com/emergent-company/omviews/internal/tools/janitor"
	soltools "github.com/emergent-company/omviews/internal/tools/solutions"
)

// app is the wired set of handlers and the MCP registry over them.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	base        *handlers.Base
	collections *collections.Handler
	contacts    *contactdetails.Handler
	solutions   *solutions.Handler
	registry    *mcp.Registry
}

func newLogger(level string) *slog.Logger {
	// stdout carries the MCP protocol and command output.
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newProvider picks the store backend. The Emergent factory takes the
// request token from the context and falls back to the configured token.
func newProvider(cfg *config.Config, logger *slog.Logger) (store.Provider, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; nothing is persisted")
		return store.Static{Store: memstore.New()}, nil
	case config.BackendEmergent:
		opts := emergent.DefaultOptions()
		opts.ProjectID = cfg.Emergent.ProjectID
		opts.MaxRetries = cfg.Store.MaxRetries
		opts.RequestsPerSecond = cfg.Store.RequestsPerSecond
		opts.LongOutageIntervalMins = cfg.Store.LongOutageIntervalMins
		opts.LongOutageThreshold = cfg.Store.LongOutageThreshold
		return emergent.NewClientFactory(cfg.Emergent.URL, cfg.Emergent.Token, opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newApp(cfg *config.Config, provider store.Provider, logger *slog.Logger) *app {
	base := handlers.NewBase(provider, logger, handlers.Options{
		MaxPageSize: cfg.Store.MaxPageSize,
		MaxDepth:    cfg.Views.MaxDepth,
	})
	a := &app{
		cfg:         cfg,
		logger:      logger,
		base:        base,
		collections: collections.New(base),
		contacts:    contactdetails.New(base),
		solutions:   solutions.New(base),
		registry:    mcp.NewRegistry(),
	}

	colltools.Register(a.registry, a.collections)
	contacts.Register(a.registry, a.contacts)
	soltools.Register(a.registry, a.solutions)
	janitor.Register(a.registry, base)
	content.Register(a.registry)
	return a
}

// loadApp reads configuration and wires the app in one step.
func loadApp(configPath string, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configPath, overrides...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg.Log.Level)
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, provider, logger), nil
}

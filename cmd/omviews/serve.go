package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/emergent-company/omviews/internal/config"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/metrics"
	"github.com/emergent-company/omviews/internal/scheduler"
	"github.com/emergent-company/omviews/internal/tools/janitor"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	var (
		httpAddr string
		backend  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server over stdio (default) or the Streamable HTTP transport.

Over HTTP, each request carries its own Emergent token as a Bearer header.
/health and /metrics are served alongside /mcp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, func(c *config.Config) {
				// Flags override file and environment.
				if cmd.Flags().Changed("http") {
					c.Server.Transport = config.TransportHTTP
					c.Server.HTTPAddr = httpAddr
				}
				if cmd.Flags().Changed("store") {
					c.Store.Backend = backend
				}
			})
			if err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve the HTTP transport on this address instead of stdio")
	cmd.Flags().StringVar(&backend, "store", "", "Store backend: emergent or memory")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	version := a.cfg.Server.Version
	if Version != "dev" {
		version = Version
	}
	a.logger.Info("starting omviews",
		"version", version,
		"transport", a.cfg.Server.Transport,
		"store", a.cfg.Store.Backend,
		"emergent_url", a.cfg.Emergent.URL,
		"tools", len(a.registry.List()),
	)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(promReg); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	if a.cfg.Janitor.Enabled {
		sched := scheduler.NewScheduler(a.logger)
		sweeper := janitor.NewSweeper(a.base)
		sched.AddJob(janitor.NewSweepJob(sweeper, a.logger, a.cfg.Emergent.Token, a.cfg.Janitor.DeleteOrphans),
			a.cfg.Janitor.Interval.Duration, scheduler.RunAtStart())
		sched.Start(ctx)
		defer sched.Stop()
	}

	server := mcp.NewServer(a.registry, mcp.ServerInfo{
		Name:    a.cfg.Server.Name,
		Version: version,
	}, a.logger)

	if a.cfg.Server.Transport != config.TransportHTTP {
		return server.Run(ctx)
	}

	httpServer := &http.Server{
		Addr: a.cfg.Server.HTTPAddr,
		Handler: mcp.NewHTTPServer(server, mcp.HTTPOptions{
			CORSOrigins: a.cfg.Server.CORSOrigins,
			RequireAuth: a.cfg.Store.Backend == config.BackendEmergent,
			Gatherer:    promReg,
		}, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	a.logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-checkin/internal/config"
	"github.com/Shivanand-hulikatti/event-checkin/internal/database"
	"github.com/Shivanand-hulikatti/event-checkin/internal/handler"
	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/logger"
	"github.com/Shivanand-hulikatti/event-checkin/internal/metrics"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const appName = "checkin"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags override the matching environment settings when set.
type flags struct {
	port     string
	logLevel string
	store    string
}

func (f flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	pf := cmd.Flags()
	if pf.Changed("port") {
		cfg.Port = f.port
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if pf.Changed("store") {
		cfg.Store = f.store
	}
	return cfg.Validate()
}

func rootCmd() *cobra.Command {
	var f flags

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := f.apply(cmd, &cfg); err != nil {
			return err
		}
		return runServer(cmd.Context(), cfg)
	}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Event check-in and attendee management service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	cmd.PersistentFlags().StringVar(&f.port, "port", "8080", "HTTP listen port (env PORT)")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&f.store, "store", config.StoreMemory, "Storage backend: memory or postgres (env STORE)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  serve,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, &cfg); err != nil {
				return err
			}
			log := logger.New(os.Stderr, cfg.LogLevel)

			pool, err := database.NewPool(cmd.Context(), cfg.DB, log)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer pool.Close()

			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info("schema applied", "database", cfg.DB.Name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func runServer(parent context.Context, cfg config.Config) error {
	log := logger.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Storage ────────────────────────────────────────────────────────
	stores, ids, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	// ── 2. Wire up layers ────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc := service.New(service.Deps{
		Stores:  stores,
		IDs:     ids,
		Metrics: m,
		Log:     log,
	})
	router := handler.NewRouter(handler.RouterConfig{
		Services:     svc,
		Metrics:      m,
		Gatherer:     reg,
		AuthDisabled: cfg.AuthDisabled,
		Log:          log,
	})
	if cfg.AuthDisabled {
		log.Warn("bearer authentication is disabled")
	}

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "store", cfg.Store, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// openStores selects the storage backend. The in-memory store hands out
// sequential ids; PostgreSQL rows get UUIDs.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Stores, idgen.Allocator, func(), error) {
	if cfg.Store != config.StorePostgres {
		log.Info("using in-memory store")
		return repository.NewMemoryStores(), idgen.NewSequence(0), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return repository.Stores{}, nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return repository.Stores{}, nil, nil, err
	}
	log.Info("connected to PostgreSQL", "host", cfg.DB.Host, "database", cfg.DB.Name)
	return repository.NewPostgresStores(pool), idgen.UUID{}, pool.Close, nil
}

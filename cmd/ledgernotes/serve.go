// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgernotes/ledgernotes/internal/auth"
	"github.com/ledgernotes/ledgernotes/internal/catalog"
	"github.com/ledgernotes/ledgernotes/internal/config"
	"github.com/ledgernotes/ledgernotes/internal/control"
	"github.com/ledgernotes/ledgernotes/internal/logging"
	"github.com/ledgernotes/ledgernotes/internal/observability"
	"github.com/ledgernotes/ledgernotes/internal/progress"
	"github.com/ledgernotes/ledgernotes/internal/store"
	"github.com/ledgernotes/ledgernotes/internal/web"
	"github.com/ledgernotes/ledgernotes/internal/xdg"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreFactory creates the document store.
	// Default: store.NewFileStore
	StoreFactory func(path string) (*store.FileStore, error)

	// CatalogLoader loads the subject catalog.
	// Default: catalog.Load
	CatalogLoader func(path string) (*catalog.Catalog, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) *observability.Server

	// ControlServerFactory creates a control socket server.
	// Default: control.NewServer
	ControlServerFactory func(shutdownFunc control.ShutdownFunc, statusFunc control.StatusFunc) *control.Server
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LedgerNotes web server",
		Long: `Start the web server: the note index, signup/login, and progress
tracking, plus the observability endpoints and the control socket.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreFactory == nil {
		deps.StoreFactory = store.NewFileStore
	}
	if deps.CatalogLoader == nil {
		deps.CatalogLoader = catalog.Load
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = observability.NewServer
	}
	if deps.ControlServerFactory == nil {
		deps.ControlServerFactory = control.NewServer
	}

	logging.SetDefault("ledgernotes", version, cfg.Log.Format)
	logger := slog.Default()

	slog.Info("starting ledgernotes",
		"addr", cfg.Server.Addr,
		"store_path", cfg.Store.Path,
		"log_format", cfg.Log.Format,
	)

	if err := xdg.EnsureDir(filepath.Dir(cfg.Store.Path)); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	docs, err := deps.StoreFactory(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	cat, err := deps.CatalogLoader(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	sessions := auth.NewManager(cfg.SessionTTL())

	accounts, err := auth.NewService(docs, auth.NewArgon2idHasher())
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	prog, err := progress.NewService(docs, sessions, cat, logger)
	if err != nil {
		return fmt.Errorf("failed to create progress service: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The observability server is constructed before the web server because
	// the web server records into its metrics, while its readiness check has
	// to reach the web server constructed after it. The indirection is
	// atomic: readiness probes run on the serving goroutines.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	var webReady atomic.Pointer[observability.ReadinessChecker]
	notReady := observability.ReadinessChecker(func() bool { return false })
	webReady.Store(&notReady)

	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, func() bool { return (*webReady.Load())() })
		metrics = obsServer.Metrics()
	}

	webServer, err := web.NewServer(web.ServerConfig{
		Addr:     cfg.Server.Addr,
		Sessions: sessions,
		Accounts: accounts,
		Progress: prog,
		Catalog:  cat,
		Metrics:  metrics,
		NotesDir: cfg.Notes.Dir,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	readyCheck := observability.ReadinessChecker(webServer.Ready)
	webReady.Store(&readyCheck)

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	webErrChan, err := webServer.Start()
	if err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	controlServer := deps.ControlServerFactory(
		func() { cancel() },
		func() (int, int, string) {
			users := 0
			if doc, readErr := docs.Read(context.Background()); readErr == nil {
				users = len(doc.Users)
			}
			return sessions.Len(), users, cfg.Store.Path
		},
	)
	if err := controlServer.Start(); err != nil {
		return fmt.Errorf("failed to start control socket: %w", err)
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("LedgerNotes started on " + webServer.Addr())
	slog.Info("ledgernotes ready",
		"addr", webServer.Addr(),
		"subjects", cat.Len(),
	)

	// Wait for shutdown signal or server failure
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping web server", "error", err)
	}

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	if err := controlServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping control socket", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// This ensures that server failures trigger graceful shutdown of the entire process.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}

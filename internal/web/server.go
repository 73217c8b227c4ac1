// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

// Package web serves the LedgerNotes HTTP surface: the note index, account
// signup and login, and progress updates.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/ledgernotes/ledgernotes/internal/auth"
	"github.com/ledgernotes/ledgernotes/internal/catalog"
	"github.com/ledgernotes/ledgernotes/internal/observability"
	"github.com/ledgernotes/ledgernotes/internal/progress"
)

// ServerConfig holds the collaborators and settings for a web Server.
type ServerConfig struct {
	// Addr is the listen address in "host:port" format (e.g., ":3000").
	Addr string

	// Sessions resolves and mutates browser sessions.
	Sessions *auth.Manager

	// Accounts performs signup and login.
	Accounts *auth.Service

	// Progress replaces completed-notes sets.
	Progress *progress.Service

	// Catalog is the subject list rendered on the index page.
	Catalog *catalog.Catalog

	// Metrics records request and business counters. Optional.
	Metrics *observability.Metrics

	// NotesDir, when set, is served under /notes/.
	NotesDir string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *ServerConfig) validate() error {
	if c.Addr == "" {
		return oops.Errorf("listen address is required")
	}
	if c.Sessions == nil {
		return oops.Errorf("session manager is required")
	}
	if c.Accounts == nil {
		return oops.Errorf("account service is required")
	}
	if c.Progress == nil {
		return oops.Errorf("progress service is required")
	}
	if c.Catalog == nil {
		return oops.Errorf("catalog is required")
	}
	return nil
}

// Server is the public HTTP server.
type Server struct {
	cfg        ServerConfig
	logger     *slog.Logger
	templates  *templateSet
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a web server from cfg.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, logger: logger, templates: templates}, nil
}

// Start begins serving HTTP.
// It returns an error channel that will receive any errors from the HTTP
// server after it starts. The channel is closed when the server stops
// gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the web server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Ready reports whether the server is accepting requests. Used as the
// observability readiness check.
func (s *Server) Ready() bool {
	return s.running.Load()
}

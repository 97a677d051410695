// Package server runs the launch server: the persistent launcher session
// channel, the join-proof REST surface and the static content file server,
// all on one listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/hasher"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/secure"
	"github.com/team-ns/launcher/internal/server/api"
	"github.com/team-ns/launcher/pkg/config"
	"github.com/team-ns/launcher/pkg/metrics"
	"github.com/team-ns/launcher/pkg/profile"
)

// Server wires the configured components behind one HTTP listener.
type Server struct {
	cfg        *config.ServerConfig
	catalog    *profile.Catalog
	hasher     *hasher.Service
	provider   auth.Provider
	keys       *secure.KeyPair
	extensions []Extension

	http *http.Server
}

// New assembles a server from its components. Extensions are fixed for the
// server's lifetime.
func New(cfg *config.ServerConfig, catalog *profile.Catalog, hashSvc *hasher.Service,
	provider auth.Provider, keys *secure.KeyPair, extensions ...Extension) *Server {
	return &Server{
		cfg:        cfg,
		catalog:    catalog,
		hasher:     hashSvc,
		provider:   provider,
		keys:       keys,
		extensions: extensions,
	}
}

// router builds the HTTP surface: the websocket endpoint at /api, the REST
// and file routes, and /metrics when enabled.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api", s.handleSession)
	r.Mount("/", api.New(api.Config{
		Provider:  s.provider,
		StaticDir: s.hasher.StaticDir(),
		Textures:  s.cfg.Textures,
	}).Routes())

	if s.cfg.Metrics.Enabled && metrics.IsEnabled() {
		r.Handle("/metrics", metrics.Handler())
	}
	return r
}

// Run initializes extensions and serves until ctx is canceled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	for _, ext := range s.extensions {
		if err := ext.Init(ctx); err != nil {
			return fmt.Errorf("extension init: %w", err)
		}
	}

	s.http = &http.Server{
		Addr:        s.cfg.Bind,
		Handler:     s.router(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("launch server listening", logger.KeyURL, s.cfg.Bind)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Rehash re-runs the named content passes and records the duration.
func (s *Server) Rehash(ctx context.Context, passes ...string) error {
	start := time.Now()
	if err := s.catalog.Refresh(filepath.Join(s.hasher.StaticDir(), hasher.ProfilesDir)); err != nil {
		return err
	}
	if err := s.hasher.Rehash(ctx, passes...); err != nil {
		return err
	}
	metrics.ObserveRehash(time.Since(start))
	return nil
}

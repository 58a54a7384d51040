package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

// Dependencies are the long-lived components shared by every handler.
type Dependencies struct {
	Authenticator *auth.Authenticator
	URLs          *oidc.URLBuilder
	Cookies       *security.CookieCodec
	Store         cache.Store
	HTTPClient    *http.Client
}

type Server struct {
	cfg        config.Config
	deps       Dependencies
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if deps.Authenticator == nil || deps.URLs == nil || deps.Cookies == nil {
		return nil, fmt.Errorf("authenticator, url builder and cookie codec are required")
	}
	if cfg.Login.PKCE && deps.Store == nil {
		return nil, fmt.Errorf("a login state store is required when pkce is enabled")
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}, nil
}

func (s *Server) Start() error {
	router, err := s.setupRoutes()
	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"host", s.cfg.Server.Host,
			"port", s.cfg.Server.Port,
			"login_callback", s.deps.URLs.LoginCallbackURL(),
			"backend", s.cfg.Backend.URL,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig)
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return err
		}
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.Close(); err != nil {
			s.logger.Error("error closing login state store", "error", err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

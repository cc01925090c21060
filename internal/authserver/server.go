// Package authserver is the local web server the launcher spawns. It walks
// the user through the Kite Connect login flow, captures the OAuth callback,
// exchanges the request token, and persists the daily access token.
package authserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradewire/kitebridge/internal/config"
	"github.com/tradewire/kitebridge/internal/kite"
	"github.com/tradewire/kitebridge/internal/tokenstore"
)

// Version is set by the CLI before the server starts.
var Version = "dev"

// Server hosts the auth bridge web UI and API.
type Server struct {
	cfg    *config.Config
	kite   *kite.Client
	tokens *tokenstore.Store
}

// New creates a Server from its collaborators.
func New(cfg *config.Config, kc *kite.Client, tokens *tokenstore.Store) *Server {
	return &Server{
		cfg:    cfg,
		kite:   kc,
		tokens: tokens,
	}
}

// Run starts the server and blocks until the context is canceled, then
// drains in-flight requests for up to 10 seconds.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprintf("%d", s.cfg.Server.Port))
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Auth server listening", "address", addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Auth server stopped")
	return nil
}

// RunWithSignalHandling starts the server and shuts down gracefully on
// SIGINT/SIGTERM.
func (s *Server) RunWithSignalHandling() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

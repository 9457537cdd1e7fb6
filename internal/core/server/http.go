package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"

	"github.com/solatis/fieldkeeper/internal/core/config"
	"github.com/solatis/fieldkeeper/internal/core/logging"
)

// HTTPServer manages the fiber app lifecycle alongside the gRPC server.
type HTTPServer struct {
	app    *fiber.App
	config *config.ServiceConfig
	logger *slog.Logger
}

// NewHTTPServer wraps an app built by httpapi.New.
func NewHTTPServer(cfg *config.ServiceConfig, app *fiber.App, logger *slog.Logger) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if app == nil {
		return nil, fmt.Errorf("app cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &HTTPServer{app: app, config: cfg, logger: logger.With("component", "http_server")}, nil
}

// Start binds the HTTP address and serves until Shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := s.config.HTTPAddr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.logger.Info("http server listening", "addr", listener.Addr().String())
	return s.app.Listener(listener)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

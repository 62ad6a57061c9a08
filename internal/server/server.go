package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/commerce-mcp/internal/config"
	"github.com/standardbeagle/commerce-mcp/internal/fixtures"
	"github.com/standardbeagle/commerce-mcp/internal/handlers"
	"github.com/standardbeagle/commerce-mcp/internal/latency"
	"github.com/standardbeagle/commerce-mcp/internal/logging"
	"github.com/standardbeagle/commerce-mcp/internal/router"
	"github.com/standardbeagle/commerce-mcp/internal/session"
	"github.com/standardbeagle/commerce-mcp/internal/widget"
)

const (
	serverName    = "commerce-mcp"
	serverVersion = "0.1.0"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server is the commerce-mcp server.
type Server struct {
	config   *config.Config
	logger   logging.Logger
	registry *widget.Registry
	router   *router.Router
	sessions *session.Manager
}

// NewFromConfig creates a Server reading widget markup from cfg.AssetsDir.
// A widget without markup is a fatal startup error.
func NewFromConfig(cfg *config.Config, logger logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	info, err := os.Stat(cfg.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("assets dir: %w: %v", widget.ErrAssetMissing, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets dir: %w: %s is not a directory", widget.ErrAssetMissing, cfg.AssetsDir)
	}
	return New(cfg, os.DirFS(cfg.AssetsDir), logger)
}

// New creates a Server serving the widget markup found in assets.
func New(cfg *config.Config, assets fs.FS, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	reg, err := widget.NewRegistry(widget.Defaults(), assets)
	if err != nil {
		return nil, err
	}

	fx, err := fixtures.Load()
	if err != nil {
		return nil, err
	}

	src, err := latency.FromConfig(cfg.Latency, logger.With("component", "latency"))
	if err != nil {
		return nil, err
	}

	hs := handlers.NewSet(handlers.Deps{
		Fixtures:   fx,
		Latency:    src,
		AppVersion: cfg.AppVersion,
		Logger:     logger.With("component", "handlers"),
	})

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: reg,
		router:   router.New(reg, hs, logger.With("component", "router")),
	}

	impl := &mcp.Implementation{Name: serverName, Version: serverVersion}
	s.sessions = session.NewManager(
		func() *mcp.Server { return s.router.NewServer(impl) },
		session.Options{
			Endpoint:    MessagesPath,
			MaxSessions: cfg.Sessions.Max,
			RateLimit:   cfg.Sessions.RateLimit,
			Burst:       cfg.Sessions.Burst,
		},
		logger.With("component", "sessions"),
	)

	logger.Debug("server initialized", "widgets", reg.Len(), "latency", cfg.Latency.Mode)
	return s, nil
}

// RunStdio serves a single session over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	impl := &mcp.Implementation{Name: serverName, Version: serverVersion}
	return s.router.NewServer(impl).Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP listens on the configured address and serves the SSE endpoint
// until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the SSE endpoint on ln until ctx is cancelled. Live sessions
// are closed when shutdown begins so their event streams end.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	srv.RegisterOnShutdown(s.sessions.CloseAll)

	addr := ln.Addr().String()
	s.logger.Info("commerce-mcp server running", "addr", addr)
	s.logger.Info("endpoints", "sse", "GET http://"+addr+SSEPath, "messages", "POST http://"+addr+MessagesPath+"?sessionId=...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("commerce-mcp server stopped")
		return nil
	})
	return g.Wait()
}

// Close closes every live session.
func (s *Server) Close() error {
	s.sessions.CloseAll()
	return nil
}

// Registry returns the widget registry.
func (s *Server) Registry() *widget.Registry {
	return s.registry
}

// Router returns the request router.
func (s *Server) Router() *router.Router {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

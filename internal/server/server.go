// Package server hosts the HTTP server and wires the recognition
// pipeline from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/retrodraw/retrodraw/internal/analyze"
	"github.com/retrodraw/retrodraw/internal/api"
	"github.com/retrodraw/retrodraw/internal/config"
	"github.com/retrodraw/retrodraw/internal/docclass"
	"github.com/retrodraw/retrodraw/internal/home"
	"github.com/retrodraw/retrodraw/internal/localocr"
	"github.com/retrodraw/retrodraw/internal/ocr"
	"github.com/retrodraw/retrodraw/internal/preprocess"
	"github.com/retrodraw/retrodraw/internal/providers"
	"github.com/retrodraw/retrodraw/internal/raster"
	"github.com/retrodraw/retrodraw/internal/server/endpoints"
	"github.com/retrodraw/retrodraw/internal/svcctx"
	"github.com/retrodraw/retrodraw/internal/textlayer"
)

// Server is the main Retrodraw HTTP server. A config reload rebuilds
// the recognition pipeline in place; in-flight requests keep the
// services they started with.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu       sync.RWMutex
	services *svcctx.Services
	running  bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0)
	Host string
	// Port is the port to listen on (default: 5000)
	Port string
	// Home is the retrodraw home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	s.rebuildPipeline(cfg.ConfigManager.Get())

	// Config changes rewire providers and the pipeline without a restart
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		s.rebuildPipeline(c)
		cfg.Logger.Info("recognition pipeline reloaded from config")
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: s.withServices(mux),
		// Remote cascades over multi-page documents can run for minutes
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// rebuildPipeline constructs the recognition services from the given
// config and swaps them in atomically.
func (s *Server) rebuildPipeline(cfg *config.Config) {
	reader := textlayer.NewReader()
	converter := raster.NewConverter()
	classifier := docclass.New(reader, converter, s.logger)

	var local *localocr.Recognizer
	if cfg.Local.Enabled {
		psms := make([]localocr.PageSegMode, 0, len(cfg.Local.PageSegModes))
		for _, m := range cfg.Local.PageSegModes {
			psms = append(psms, localocr.PageSegMode(m))
		}
		local = localocr.NewRecognizer(localocr.NewGosseractEngine(), localocr.Config{
			PageSegModes: psms,
			Preprocess: preprocess.Options{
				Contrast: cfg.Preprocess.Contrast,
				DPIFloor: cfg.Preprocess.DPIFloor,
			},
		}, s.logger)
	}

	var client providers.VisionClient
	if c, err := s.registry.Get(cfg.Remote.Provider); err == nil {
		client = c
	} else {
		s.logger.Warn("remote provider not configured, remote tier disabled",
			"provider", cfg.Remote.Provider)
	}
	cascade := providers.NewCascade(client, cfg.ToCascadeConfig(), s.logger)

	ocrService := ocr.NewService(classifier, reader, converter, local, cascade, s.logger)
	analyzer := analyze.NewAnalyzer(cascade, s.logger)

	s.mu.Lock()
	s.services = &svcctx.Services{
		OCR:      ocrService,
		Analyzer: analyzer,
		Registry: s.registry,
		Config:   s.configMgr,
		Logger:   s.logger,
		Home:     s.home,
	}
	s.mu.Unlock()
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Services returns the current service set.
func (s *Server) Services() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.Services(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the recognition pipeline isn't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := s.Services()
		if services == nil || services.OCR == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/retrodraw/retrodraw/internal/analyze"
	"github.com/retrodraw/retrodraw/internal/config"
	"github.com/retrodraw/retrodraw/internal/home"
	"github.com/retrodraw/retrodraw/internal/ocr"
	"github.com/retrodraw/retrodraw/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	OCR      *ocr.Service
	Analyzer *analyze.Analyzer
	Registry *providers.Registry
	Config   *config.Manager
	Logger   *slog.Logger
	Home     *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// OCRFrom extracts the OCR service from context.
func OCRFrom(ctx context.Context) *ocr.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.OCR
	}
	return nil
}

// AnalyzerFrom extracts the drawing analyzer from context.
func AnalyzerFrom(ctx context.Context) *analyze.Analyzer {
	if s := ServicesFrom(ctx); s != nil {
		return s.Analyzer
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

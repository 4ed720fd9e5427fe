package ocr

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/retrodraw/retrodraw/internal/docclass"
)

// overrideKinds maps user method-override values to strategies.
var overrideKinds = map[string]StrategyKind{
	"text":              KindTextLayer,
	"textlayer":         KindTextLayer,
	"text_layer":        KindTextLayer,
	"local":             KindLocalEngine,
	"tesseract":         KindLocalEngine,
	"remote":            KindRemoteModel,
	"cloud":             KindRemoteModel,
	"vision":            KindRemoteModel,
	"cascade":           KindRemoteThenLocal,
	"remote_then_local": KindRemoteThenLocal,
}

// Selector picks one recognition strategy per request.
type Selector struct {
	logger *slog.Logger
}

// NewSelector creates a Selector.
func NewSelector(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{logger: logger}
}

// Select picks a strategy from the classification, the user's method
// override and quality preference, and the backends actually usable.
// A recognized override wins verbatim; an unrecognized one logs a
// warning and falls back to automatic selection. Selection degrades to
// whatever backend is available and only fails with ErrNoStrategy when
// there is none.
func (s *Selector) Select(cls docclass.Classification, override string, quality Quality, caps Capabilities) (Strategy, string, error) {
	if !caps.Any() {
		return Strategy{}, "no backend available", ErrNoStrategy
	}

	if ov := strings.ToLower(strings.TrimSpace(override)); ov != "" && ov != "auto" {
		if kind, ok := overrideKinds[ov]; ok {
			return Strategy{Kind: kind}, fmt.Sprintf("user override %q", ov), nil
		}
		s.logger.Warn("unrecognized method override, selecting automatically", "override", override)
	}

	kind, reasoning := s.autoSelect(cls, quality)

	degraded := degrade(kind, caps)
	if degraded != kind {
		reasoning = fmt.Sprintf("%s; degraded to %s (preferred backend unavailable)", reasoning, degraded)
	}
	return Strategy{Kind: degraded}, reasoning, nil
}

func (s *Selector) autoSelect(cls docclass.Classification, quality Quality) (StrategyKind, string) {
	// Single images skip the network unless the caller insists on
	// accuracy: a round-trip dominates latency for one page.
	if cls.IsImage {
		if quality == QualityAccurate {
			return KindRemoteModel, "single image, accurate quality requested"
		}
		return KindLocalEngine, "single image, fast path"
	}

	switch cls.Kind {
	case docclass.Vector:
		return KindTextLayer, fmt.Sprintf("vector document (text ratio %.2f)", cls.TextRatio)
	case docclass.Raster:
		switch quality {
		case QualityAccurate:
			return KindRemoteModel, "raster document, accurate quality requested"
		case QualityFast:
			return KindLocalEngine, "raster document, fast quality requested"
		default:
			// Balanced favors perceived responsiveness: local first,
			// remote stays in the fallback chain.
			return KindLocalEngine, "raster document, balanced quality"
		}
	default: // Mixed, Unknown
		return KindRemoteThenLocal, fmt.Sprintf("%s document, remote with local safety net", cls.Kind)
	}
}

// degrade replaces a strategy whose backend is missing with the best
// available alternative.
func degrade(kind StrategyKind, caps Capabilities) StrategyKind {
	switch kind {
	case KindTextLayer:
		if caps.TextLayer {
			return kind
		}
		switch {
		case caps.Remote && caps.Local:
			return KindRemoteThenLocal
		case caps.Remote:
			return KindRemoteModel
		default:
			return KindLocalEngine
		}
	case KindRemoteModel:
		if caps.Remote {
			return kind
		}
		if caps.Local {
			return KindLocalEngine
		}
		return KindTextLayer
	case KindLocalEngine:
		if caps.Local {
			return kind
		}
		if caps.Remote {
			return KindRemoteModel
		}
		return KindTextLayer
	case KindRemoteThenLocal:
		switch {
		case caps.Remote && caps.Local:
			return kind
		case caps.Remote:
			return KindRemoteModel
		case caps.Local:
			return KindLocalEngine
		default:
			return KindTextLayer
		}
	default:
		return kind
	}
}

package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/retrodraw/retrodraw/internal/providers"
)

// fallbackOrder is the fixed global tier order: cheapest/highest
// fidelity first, regardless of which tier was picked as primary.
var fallbackOrder = []StrategyKind{KindTextLayer, KindRemoteModel, KindLocalEngine}

// Tiers wires the orchestrator to the concrete backends for one
// request. Run functions are nil-safe only when the matching Available
// flag is false.
type Tiers struct {
	TextLayerApplicable bool
	TextLayerAvailable  bool
	LocalAvailable      bool
	RemoteAvailable     bool

	RunTextLayer func(ctx context.Context) (string, error)
	RunLocal     func(ctx context.Context) (string, error)
	RunRemote    func(ctx context.Context) (string, []providers.ModelAttempt, error)
}

// Orchestrator walks the fallback chain. First success wins; each tier
// runs at most once per request; skipped tiers are recorded, not
// silently dropped.
type Orchestrator struct {
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{logger: logger}
}

// Run executes the strategy against the tiers. It returns the first
// non-empty (whitespace-trimmed) text with the tier that produced it
// and the full trace. When every applicable tier fails, the error is
// an *ExhaustedError carrying the same trace. With noFallback set,
// only the primary tier is attempted.
func (o *Orchestrator) Run(ctx context.Context, strategy Strategy, tiers Tiers, noFallback bool) (string, StrategyKind, Trace, error) {
	order := tierOrder(strategy.Kind)
	if noFallback && strategy.Kind != KindNone {
		order = order[:1]
	}

	trace := make(Trace, 0, len(order))
	for _, tier := range order {
		if err := ctx.Err(); err != nil {
			return "", KindNone, trace, err
		}

		if skip, ok := o.skipReason(tier, tiers); ok {
			trace = append(trace, Attempt{Tier: tier, Status: skip})
			continue
		}

		text, attempts := o.runTier(ctx, tier, tiers)
		trace = append(trace, attempts...)

		if strings.TrimSpace(text) != "" {
			o.logger.Info("recognition tier succeeded",
				"tier", tier, "chars", len(strings.TrimSpace(text)))
			return text, tier, trace, nil
		}
		o.logger.Debug("recognition tier produced no text, falling back", "tier", tier)
	}

	return "", KindNone, trace, &ExhaustedError{Trace: trace}
}

// tierOrder puts the strategy's primary tier first, then the remaining
// tiers in the fixed global order.
func tierOrder(kind StrategyKind) []StrategyKind {
	primary := kind
	if kind == KindRemoteThenLocal {
		primary = KindRemoteModel
	}

	order := make([]StrategyKind, 0, len(fallbackOrder))
	if primary != KindNone {
		order = append(order, primary)
	}
	for _, tier := range fallbackOrder {
		if tier != primary {
			order = append(order, tier)
		}
	}
	return order
}

func (o *Orchestrator) skipReason(tier StrategyKind, tiers Tiers) (string, bool) {
	switch tier {
	case KindTextLayer:
		if !tiers.TextLayerApplicable {
			return StatusSkippedNotApt, true
		}
		if !tiers.TextLayerAvailable {
			return StatusSkippedNoBackend, true
		}
	case KindRemoteModel:
		if !tiers.RemoteAvailable {
			return StatusSkippedNoBackend, true
		}
	case KindLocalEngine:
		if !tiers.LocalAvailable {
			return StatusSkippedNoBackend, true
		}
	}
	return "", false
}

// runTier executes one tier and renders its trace entries. The remote
// tier contributes one entry per model call; the others one entry.
func (o *Orchestrator) runTier(ctx context.Context, tier StrategyKind, tiers Tiers) (string, []Attempt) {
	start := time.Now()

	if tier == KindRemoteModel {
		text, modelAttempts, err := tiers.RunRemote(ctx)
		attempts := make([]Attempt, 0, len(modelAttempts)+1)
		for _, ma := range modelAttempts {
			attempts = append(attempts, Attempt{
				Tier:    KindRemoteModel,
				Detail:  ma.Model,
				Status:  ma.Status,
				Elapsed: ma.Elapsed,
				Chars:   ma.Chars,
				Reason:  ma.Reason,
			})
		}
		if err != nil && len(attempts) == 0 {
			attempts = append(attempts, Attempt{
				Tier:    KindRemoteModel,
				Status:  StatusError,
				Elapsed: time.Since(start),
				Reason:  err.Error(),
			})
		}
		return text, attempts
	}

	var (
		text string
		err  error
	)
	switch tier {
	case KindTextLayer:
		text, err = tiers.RunTextLayer(ctx)
	case KindLocalEngine:
		text, err = tiers.RunLocal(ctx)
	}

	attempt := Attempt{Tier: tier, Elapsed: time.Since(start)}
	switch {
	case err != nil:
		attempt.Status = StatusError
		attempt.Reason = err.Error()
		text = ""
	case strings.TrimSpace(text) == "":
		attempt.Status = StatusEmpty
	default:
		attempt.Status = StatusSuccess
		attempt.Chars = len(strings.TrimSpace(text))
	}
	return text, []Attempt{attempt}
}

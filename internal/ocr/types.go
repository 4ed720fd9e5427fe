// Package ocr houses the method selector and fallback orchestrator:
// given a classified document, it picks a recognition strategy and
// walks the fallback chain until one tier yields usable text.
package ocr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Quality is the caller's cost/accuracy bias.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityBalanced Quality = "balanced"
	QualityAccurate Quality = "accurate"
)

// ParseQuality normalizes a caller-supplied quality string. Unknown
// values fall back to balanced.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return QualityFast
	case "accurate", "best":
		return QualityAccurate
	default:
		return QualityBalanced
	}
}

// StrategyKind names a recognition strategy. The first three double as
// tier names in traces and results.
type StrategyKind string

const (
	KindTextLayer       StrategyKind = "text_layer"
	KindRemoteModel     StrategyKind = "remote_model"
	KindLocalEngine     StrategyKind = "local_engine"
	KindRemoteThenLocal StrategyKind = "remote_then_local"

	// KindNone marks the absence of a viable strategy; orchestration
	// over it records every tier as skipped and fails terminally.
	KindNone StrategyKind = ""
)

// Strategy is the selector's pick, immutable per request.
type Strategy struct {
	Kind StrategyKind
}

// Capabilities reports which backends are usable for this request.
// Queried once per request, before selection.
type Capabilities struct {
	// TextLayer is true when the document format carries an embedded
	// text layer that the reader can open.
	TextLayer bool
	Local     bool
	Remote    bool
}

// Any reports whether at least one backend is usable.
func (c Capabilities) Any() bool {
	return c.TextLayer || c.Local || c.Remote
}

// Attempt statuses beyond the per-model ones reused from the cascade.
const (
	StatusSuccess          = "success"
	StatusEmpty            = "empty"
	StatusError            = "error"
	StatusSkippedNoBackend = "skipped:unavailable"
	StatusSkippedNotApt    = "skipped:not-applicable"
)

// Attempt is one entry of the processing trace: a tier execution, a
// single remote model call, or a recorded skip.
type Attempt struct {
	Tier    StrategyKind  `json:"tier"`
	Detail  string        `json:"detail,omitempty"` // model id for remote attempts
	Status  string        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Chars   int           `json:"chars,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

func (a Attempt) String() string {
	name := string(a.Tier)
	if a.Detail != "" {
		name += "(" + a.Detail + ")"
	}
	if a.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", name, a.Status, a.Reason)
	}
	return fmt.Sprintf("%s: %s", name, a.Status)
}

// Trace is the append-only record of what was tried, in order.
type Trace []Attempt

// Result is the terminal success of one processing request.
type Result struct {
	Text      string        `json:"text"`
	Method    StrategyKind  `json:"method_used"`
	PageCount int           `json:"page_count"`
	Elapsed   time.Duration `json:"elapsed"`
	Trace     Trace         `json:"trace"`
	RequestID string        `json:"request_id"`
}

// ErrNoStrategy is returned by the selector when no backend at all is
// usable.
var ErrNoStrategy = errors.New("no recognition strategy available")

// ExhaustedError is the terminal failure: every applicable tier was
// attempted or skipped and none produced text. The trace names each
// tier and why it failed.
type ExhaustedError struct {
	Trace Trace
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Trace))
	for _, a := range e.Trace {
		parts = append(parts, a.String())
	}
	return "all recognition methods exhausted: " + strings.Join(parts, "; ")
}

package providers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// DefaultModel is tried first when the caller names no model.
const DefaultModel = "qwen/qwen3-vl-32b-instruct"

// ModelTiers is the priority-ordered fallback list: OCR-specialized
// models first, then strong general-purpose ones, then budget/free
// models as a last resort.
type ModelTiers struct {
	Specialized []string
	General     []string
	Budget      []string
}

// DefaultModelTiers returns the built-in fallback ordering.
func DefaultModelTiers() ModelTiers {
	return ModelTiers{
		Specialized: []string{
			"qwen/qwen3-vl-32b-instruct",
			"qwen/qwen2.5-vl-72b-instruct",
			"qwen/qwen2.5-vl-32b-instruct",
			"internvl/internvl2-78b",
			"internvl/internvl2-26b",
			"internvl/internvl2-8b",
			"got-ocr/got-ocr-2.0",
		},
		General: []string{
			"openai/gpt-4o",
			"anthropic/claude-3.5-sonnet",
			"google/gemini-1.5-pro",
		},
		Budget: []string{
			"qwen/qwen-2-vl-72b-instruct",
			"google/gemini-2.0-flash-exp",
			"google/gemini-2.0-flash-001",
			"mistralai/pixtral-large",
			"x-ai/grok-4.1-fast:free",
			"internvl/internvl2-1b",
		},
	}
}

// Ordered flattens the tiers into the full attempt order.
func (t ModelTiers) Ordered() []string {
	out := make([]string, 0, len(t.Specialized)+len(t.General)+len(t.Budget))
	out = append(out, t.Specialized...)
	out = append(out, t.General...)
	out = append(out, t.Budget...)
	return out
}

// Attempt statuses recorded per model call.
const (
	AttemptSuccess = "success"
	AttemptEmpty   = "empty"
	AttemptRefused = "refused"
	AttemptTimeout = "timeout"
	AttemptError   = "error"
)

// ModelAttempt records the outcome of one model call for tracing.
type ModelAttempt struct {
	Model   string        `json:"model"`
	Status  string        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Chars   int           `json:"chars"`
	Reason  string        `json:"reason,omitempty"`
}

// CascadeConfig tunes the model cascade. Zero values use defaults.
type CascadeConfig struct {
	Tiers        ModelTiers
	DefaultModel string
	CallTimeout  time.Duration
	Temperature  float64
	MaxTokens    int
}

// ExtractOptions are per-request cascade controls.
type ExtractOptions struct {
	// Model, when set, is attempted before the tier list.
	Model string
	// NoFallback restricts the cascade to the explicit model only.
	NoFallback bool
	// RequestID stamps each call for tracing.
	RequestID string
	// Prompt replaces the standard OCR prompt when set. Used by the
	// drawing analyzer, which wants structured JSON rather than a
	// transcript.
	Prompt string
}

// Cascade walks the model priority list over a single vision client.
// Every model is tried at most once per request; a refusal, empty
// answer, timeout or transport error moves to the next model.
type Cascade struct {
	client VisionClient
	cfg    CascadeConfig
	logger *slog.Logger
}

// NewCascade builds the cascade around a client.
func NewCascade(client VisionClient, cfg CascadeConfig, logger *slog.Logger) *Cascade {
	if len(cfg.Tiers.Ordered()) == 0 {
		cfg.Tiers = DefaultModelTiers()
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{client: client, cfg: cfg, logger: logger}
}

// Available reports whether a remote client is configured.
func (c *Cascade) Available() bool {
	return c != nil && c.client != nil
}

// ModelOrder returns the attempt order for the given options: the
// explicit model first (alone under NoFallback), then the tier list
// with that model deduplicated.
func (c *Cascade) ModelOrder(opts ExtractOptions) []string {
	if opts.Model != "" && opts.NoFallback {
		return []string{opts.Model}
	}
	ordered := c.cfg.Tiers.Ordered()
	first := opts.Model
	if first == "" {
		first = c.cfg.DefaultModel
	}
	out := make([]string, 0, len(ordered)+1)
	out = append(out, first)
	for _, m := range ordered {
		if m != first {
			out = append(out, m)
		}
	}
	return out
}

// ExtractText runs the cascade over one image. It returns the first
// usable text along with the model that produced it and the per-model
// attempt records. Empty text with a nil error means the whole cascade
// was exhausted; the attempts tell the caller why.
func (c *Cascade) ExtractText(ctx context.Context, image []byte, languages []string, opts ExtractOptions) (string, string, []ModelAttempt, error) {
	if !c.Available() {
		return "", "", nil, errors.New("no vision client configured")
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = OCRPrompt(languages)
	}
	attempts := make([]ModelAttempt, 0, 4)

	for _, model := range c.ModelOrder(opts) {
		if err := ctx.Err(); err != nil {
			return "", "", attempts, err
		}

		text, attempt := c.tryModel(ctx, model, prompt, image, opts.RequestID)
		attempts = append(attempts, attempt)

		if attempt.Status == AttemptSuccess {
			return text, model, attempts, nil
		}
		c.logger.Debug("vision model attempt failed",
			"model", model, "status", attempt.Status, "reason", attempt.Reason)
	}

	return "", "", attempts, nil
}

func (c *Cascade) tryModel(ctx context.Context, model, prompt string, image []byte, requestID string) (string, ModelAttempt) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	result, err := c.client.ExtractText(callCtx, &VisionRequest{
		Model:       model,
		Prompt:      prompt,
		Image:       image,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		RequestID:   requestID,
	})
	elapsed := time.Since(start)

	attempt := ModelAttempt{Model: model, Elapsed: elapsed}
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		attempt.Status = AttemptTimeout
		attempt.Reason = "call exceeded " + c.cfg.CallTimeout.String()
		return "", attempt
	case err != nil:
		attempt.Status = AttemptError
		attempt.Reason = err.Error()
		return "", attempt
	case strings.TrimSpace(result.Content) == "":
		attempt.Status = AttemptEmpty
		return "", attempt
	case LooksLikeRefusal(result.Content):
		attempt.Status = AttemptRefused
		attempt.Reason = "model declined to transcribe"
		return "", attempt
	default:
		attempt.Status = AttemptSuccess
		attempt.Chars = len(strings.TrimSpace(result.Content))
		return result.Content, attempt
	}
}

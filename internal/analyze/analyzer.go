// Package analyze extracts structured technical data from a drawing
// image: materials, standards, surface-finish values, fits and heat
// treatment, plus the raw transcript.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/retrodraw/retrodraw/internal/providers"
)

// DrawingData is the structured extraction result. Field names match
// the JSON the vision models are instructed to return.
type DrawingData struct {
	Materials     []string  `json:"materials"`
	Standards     []string  `json:"standards"`
	RaValues      []float64 `json:"raValues"`
	Fits          []string  `json:"fits"`
	HeatTreatment []string  `json:"heatTreatment"`
	RawText       string    `json:"rawText"`
}

// Analysis couples the extracted data with its provenance.
type Analysis struct {
	Data      DrawingData              `json:"data"`
	Model     string                   `json:"model"`
	Attempts  []providers.ModelAttempt `json:"attempts,omitempty"`
	Validated bool                     `json:"validated"`
}

const analysisPrompt = `You are a specialist in technical engineering drawings. Analyze this drawing image and extract the following information:

1. Materials (materials) - steel grades, metals, alloys
2. Standards (standards) - GOST, OST, TU with numbers
3. Surface roughness (raValues) - Ra values (for example Ra 1.6, Ra 3.2)
4. Fits (fits) - fit designations (for example H7/f7, H8/d9)
5. Heat treatment (heatTreatment) - treatment kinds (hardening, annealing, normalization, tempering)
6. All text on the drawing (rawText) - extract all visible text in Russian and English

Return the result as JSON with the fields:
{
  "materials": ["list of materials"],
  "standards": ["list of standards"],
  "raValues": [numeric Ra values],
  "fits": ["list of fits"],
  "heatTreatment": ["list of treatment kinds"],
  "rawText": "all extracted text"
}

When a field is not found, return an empty array or an empty string.`

// drawingSchema gates what the model returned before it is trusted:
// wrong shapes fall through to the prose parser instead of surfacing
// half-typed data.
var drawingSchema = jsonschema.MustCompileString("drawing.json", `{
	"type": "object",
	"properties": {
		"materials":     {"type": "array", "items": {"type": "string"}},
		"standards":     {"type": "array", "items": {"type": "string"}},
		"raValues":      {"type": "array", "items": {"type": "number"}},
		"fits":          {"type": "array", "items": {"type": "string"}},
		"heatTreatment": {"type": "array", "items": {"type": "string"}},
		"rawText":       {"type": "string"}
	}
}`)

// Analyzer runs the vision cascade with the analysis prompt and parses
// the response.
type Analyzer struct {
	cascade *providers.Cascade
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer over a model cascade.
func NewAnalyzer(cascade *providers.Cascade, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cascade: cascade, logger: logger}
}

// Available reports whether a remote backend is configured.
func (a *Analyzer) Available() bool {
	return a.cascade.Available()
}

// Analyze extracts structured data from one drawing image. The model
// argument pins the first model to try; "" uses the default order.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, model string) (*Analysis, error) {
	if !a.Available() {
		return nil, errors.New("no vision backend configured for analysis")
	}

	content, modelUsed, attempts, err := a.cascade.ExtractText(ctx, image, nil, providers.ExtractOptions{
		Model:  model,
		Prompt: analysisPrompt,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("all vision models failed to analyze the drawing (%d attempts)", len(attempts))
	}

	data, validated := a.parseResponse(content)
	return &Analysis{
		Data:      data,
		Model:     modelUsed,
		Attempts:  attempts,
		Validated: validated,
	}, nil
}

// parseResponse extracts the JSON object from the model response and
// validates it; anything that does not validate is handed to the
// prose parser.
func (a *Analyzer) parseResponse(content string) (DrawingData, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		raw := content[start : end+1]

		var generic any
		if err := json.Unmarshal([]byte(raw), &generic); err == nil {
			if err := drawingSchema.Validate(generic); err == nil {
				var data DrawingData
				if err := json.Unmarshal([]byte(raw), &data); err == nil {
					normalize(&data)
					return data, true
				}
			} else {
				a.logger.Debug("analysis response failed schema validation", "error", err)
			}
		}
	}

	data := ParseFromText(content)
	return data, false
}

func normalize(data *DrawingData) {
	data.Materials = dedupe(data.Materials)
	data.Standards = dedupe(data.Standards)
	data.Fits = dedupe(data.Fits)
	data.HeatTreatment = dedupe(data.HeatTreatment)
	data.RaValues = dedupeFloats(data.RaValues)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

func dedupeFloats(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	seen := make(map[float64]bool, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

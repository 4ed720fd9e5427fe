package analyze

import (
	"context"
	"testing"

	"github.com/retrodraw/retrodraw/internal/providers"
)

func newTestAnalyzer(vision providers.VisionClient) *Analyzer {
	cascade := providers.NewCascade(vision, providers.CascadeConfig{
		Tiers:        providers.ModelTiers{Specialized: []string{"m1", "m2"}},
		DefaultModel: "m1",
	}, nil)
	return NewAnalyzer(cascade, nil)
}

func TestAnalyze_ValidJSONResponse(t *testing.T) {
	vision := providers.NewMockVisionClient()
	vision.ResponseText = `Here is the analysis:
{
  "materials": ["Сталь 45", "Сталь 45"],
  "standards": ["ГОСТ 1050-88"],
  "raValues": [1.6, 3.2, 1.6],
  "fits": ["H7/f7"],
  "heatTreatment": ["закалка"],
  "rawText": "Вал. Сталь 45 ГОСТ 1050-88. Ra 1.6"
}`

	a := newTestAnalyzer(vision)
	analysis, err := a.Analyze(context.Background(), []byte("img"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !analysis.Validated {
		t.Error("valid JSON response not marked validated")
	}
	if analysis.Model != "m1" {
		t.Errorf("model = %q, want m1", analysis.Model)
	}
	if len(analysis.Data.Materials) != 1 || analysis.Data.Materials[0] != "Сталь 45" {
		t.Errorf("materials = %v, want deduplicated [Сталь 45]", analysis.Data.Materials)
	}
	if len(analysis.Data.RaValues) != 2 {
		t.Errorf("raValues = %v, want deduplicated [1.6 3.2]", analysis.Data.RaValues)
	}
}

func TestAnalyze_MalformedJSONFallsBackToProse(t *testing.T) {
	vision := providers.NewMockVisionClient()
	vision.ResponseText = "Материал: Сталь 40Х\nГОСТ 4543-71, Ra 2.5, посадка H7/g6, закалка"

	a := newTestAnalyzer(vision)
	analysis, err := a.Analyze(context.Background(), []byte("img"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Validated {
		t.Error("prose response marked validated")
	}
	if len(analysis.Data.Standards) != 1 {
		t.Errorf("standards = %v", analysis.Data.Standards)
	}
	if len(analysis.Data.RaValues) != 1 || analysis.Data.RaValues[0] != 2.5 {
		t.Errorf("raValues = %v, want [2.5]", analysis.Data.RaValues)
	}
	if analysis.Data.RawText == "" {
		t.Error("rawText not preserved")
	}
}

func TestAnalyze_WrongShapeFailsValidation(t *testing.T) {
	vision := providers.NewMockVisionClient()
	// raValues as strings violates the schema; the prose parser takes
	// over instead of trusting the shape.
	vision.ResponseText = `{"materials": "Сталь 45", "raValues": ["1.6"]}`

	a := newTestAnalyzer(vision)
	analysis, err := a.Analyze(context.Background(), []byte("img"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Validated {
		t.Error("schema-violating response marked validated")
	}
}

func TestAnalyze_CascadeFallsToSecondModel(t *testing.T) {
	vision := providers.NewMockVisionClient()
	vision.Responses = map[string]string{
		"m1": "I cannot process images.",
		"m2": `{"materials": ["Бронза БрАЖ9-4"], "standards": [], "raValues": [], "fits": [], "heatTreatment": [], "rawText": "x"}`,
	}

	a := newTestAnalyzer(vision)
	analysis, err := a.Analyze(context.Background(), []byte("img"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Model != "m2" {
		t.Errorf("model = %q, want m2", analysis.Model)
	}
	if len(analysis.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(analysis.Attempts))
	}
}

func TestAnalyze_AllModelsFail(t *testing.T) {
	vision := providers.NewMockVisionClient()
	vision.ShouldFail = true

	a := newTestAnalyzer(vision)
	if _, err := a.Analyze(context.Background(), []byte("img"), ""); err == nil {
		t.Fatal("expected error when every model fails")
	}
}

func TestParseFromText(t *testing.T) {
	text := `Деталь: Вал редуктора
Материал: Сталь 45, Сталь 40Х
ГОСТ 1050-88 и ОСТ 14-21-77
Шероховатость: Ra 1.6, Ra=3.2
Посадка: H7/f7
Термообработка: закалка, отпуск`

	data := ParseFromText(text)

	if len(data.Materials) < 2 {
		t.Errorf("materials = %v", data.Materials)
	}
	if len(data.Standards) != 2 {
		t.Errorf("standards = %v, want ГОСТ and ОСТ", data.Standards)
	}
	if len(data.RaValues) != 2 {
		t.Errorf("raValues = %v, want [1.6 3.2]", data.RaValues)
	}
	if len(data.Fits) == 0 || data.Fits[0] != "H7/f7" {
		t.Errorf("fits = %v", data.Fits)
	}
	if len(data.HeatTreatment) < 2 {
		t.Errorf("heatTreatment = %v", data.HeatTreatment)
	}
	if data.RawText != text {
		t.Error("rawText does not carry the original response")
	}
}

package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/retrodraw/retrodraw/internal/docclass"
	"github.com/retrodraw/retrodraw/internal/localocr"
	"github.com/retrodraw/retrodraw/internal/providers"
)

// availableEngine is a localocr.Engine returning a fixed answer.
type availableEngine struct {
	text string
	err  error
}

func (e *availableEngine) Available() bool { return true }

func (e *availableEngine) Recognize(ctx context.Context, image []byte, languages string, psm localocr.PageSegMode) (string, error) {
	return e.text, e.err
}

func newTestService(engine localocr.Engine, vision providers.VisionClient) *Service {
	classifier := docclass.New(nil, nil, nil)

	var local *localocr.Recognizer
	if engine != nil {
		local = localocr.NewRecognizer(engine, localocr.Config{}, nil)
	}
	var remote *providers.Cascade
	if vision != nil {
		remote = providers.NewCascade(vision, providers.CascadeConfig{
			Tiers:        providers.ModelTiers{Specialized: []string{"m1", "m2"}},
			DefaultModel: "m1",
		}, nil)
	}
	return NewService(classifier, nil, nil, local, remote, nil)
}

func TestProcess_SingleImageLocalEngine(t *testing.T) {
	engine := &availableEngine{text: "Деталь: Вал  Сталь 45  ГОСТ 1050-88"}
	svc := newTestService(engine, nil)

	result, err := svc.Process(context.Background(), Request{
		Data:      []byte("png-bytes"),
		MIMEType:  "image/png",
		Languages: []string{"rus", "eng"},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Method != KindLocalEngine {
		t.Errorf("method = %q, want local_engine", result.Method)
	}
	if result.PageCount != 1 {
		t.Errorf("page count = %d, want 1", result.PageCount)
	}
	if result.RequestID == "" {
		t.Error("result has no request id")
	}
	if result.Text != engine.text {
		t.Errorf("text = %q", result.Text)
	}
}

func TestProcess_LocalEmptyFallsBackToRemote(t *testing.T) {
	engine := &availableEngine{text: ""}
	vision := providers.NewMockVisionClient()
	vision.Responses = map[string]string{
		"m1": "I cannot process images directly.",
		"m2": "Ra 6.3  отв. 4 шт.  Сталь 40Х",
	}
	svc := newTestService(engine, vision)

	result, err := svc.Process(context.Background(), Request{
		Data:     []byte("png-bytes"),
		MIMEType: "image/png",
		Quality:  "balanced",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Method != KindRemoteModel {
		t.Errorf("method = %q, want remote_model", result.Method)
	}
	if result.Text != "Ra 6.3  отв. 4 шт.  Сталь 40Х" {
		t.Errorf("text = %q", result.Text)
	}

	// The trace records the exhausted local tier before the remote
	// model walk.
	if len(result.Trace) == 0 || result.Trace[0].Tier != KindLocalEngine || result.Trace[0].Status != StatusEmpty {
		t.Errorf("trace = %v, want local empty first", result.Trace)
	}
}

func TestProcess_NoBackendsIsExhaustedFailure(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.Process(context.Background(), Request{
		Data:     []byte("png-bytes"),
		MIMEType: "image/png",
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want *ExhaustedError", err)
	}
	if len(exhausted.Trace) != 3 {
		t.Errorf("trace = %v, want all three tiers skipped", exhausted.Trace)
	}
}

func TestProcess_ExplicitModelNoFallback(t *testing.T) {
	vision := providers.NewMockVisionClient()
	vision.Responses = map[string]string{"modelX": ""}
	svc := newTestService(nil, vision)

	_, err := svc.Process(context.Background(), Request{
		Data:       []byte("png-bytes"),
		MIMEType:   "image/png",
		Method:     "remote",
		Model:      "modelX",
		NoFallback: true,
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want *ExhaustedError", err)
	}
	called := vision.ModelsCalled()
	if len(called) != 1 || called[0] != "modelX" {
		t.Errorf("models called = %v, want only modelX", called)
	}
}

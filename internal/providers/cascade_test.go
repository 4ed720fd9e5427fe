package providers

import (
	"context"
	"errors"
	"testing"
)

func testTiers() ModelTiers {
	return ModelTiers{
		Specialized: []string{"spec/a", "spec/b"},
		General:     []string{"gen/a"},
		Budget:      []string{"budget/a"},
	}
}

func TestCascade_FirstModelSucceeds(t *testing.T) {
	mock := NewMockVisionClient()
	mock.Responses = map[string]string{"spec/a": "extracted drawing text"}
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers(), DefaultModel: "spec/a"}, nil)

	text, model, attempts, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "extracted drawing text" {
		t.Errorf("text = %q", text)
	}
	if model != "spec/a" {
		t.Errorf("model = %q, want spec/a", model)
	}
	if len(attempts) != 1 || attempts[0].Status != AttemptSuccess {
		t.Errorf("attempts = %+v", attempts)
	}
}

func TestCascade_FallsThroughRefusalAndEmpty(t *testing.T) {
	mock := NewMockVisionClient()
	mock.Responses = map[string]string{
		"spec/a": "I cannot process images directly.",
		"spec/b": "",
		"gen/a":  "Деталь: Вал  Ra 1.6",
	}
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers(), DefaultModel: "spec/a"}, nil)

	text, model, attempts, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if model != "gen/a" {
		t.Errorf("model = %q, want gen/a", model)
	}
	if text != "Деталь: Вал  Ra 1.6" {
		t.Errorf("text = %q", text)
	}

	wantStatuses := []string{AttemptRefused, AttemptEmpty, AttemptSuccess}
	if len(attempts) != len(wantStatuses) {
		t.Fatalf("attempts = %d, want %d", len(attempts), len(wantStatuses))
	}
	for i, want := range wantStatuses {
		if attempts[i].Status != want {
			t.Errorf("attempt %d status = %q, want %q", i, attempts[i].Status, want)
		}
	}
}

func TestCascade_ExplicitModelFirst(t *testing.T) {
	mock := NewMockVisionClient()
	mock.ShouldFail = true
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers(), DefaultModel: "spec/a"}, nil)

	_, _, attempts, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{Model: "gen/a"})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	called := mock.ModelsCalled()
	if len(called) == 0 || called[0] != "gen/a" {
		t.Fatalf("call order = %v, want explicit model first", called)
	}
	// Every tier model tried exactly once, the explicit one not repeated.
	seen := map[string]int{}
	for _, m := range called {
		seen[m]++
	}
	for m, n := range seen {
		if n != 1 {
			t.Errorf("model %s called %d times, want 1", m, n)
		}
	}
	if len(called) != 4 {
		t.Errorf("calls = %d, want 4 (explicit + 3 remaining tier models)", len(called))
	}
	if len(attempts) != len(called) {
		t.Errorf("attempts = %d, calls = %d", len(attempts), len(called))
	}
}

func TestCascade_NoFallback(t *testing.T) {
	mock := NewMockVisionClient()
	mock.Responses = map[string]string{"spec/b": ""}
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers(), DefaultModel: "spec/a"}, nil)

	text, _, attempts, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{
		Model:      "spec/b",
		NoFallback: true,
	})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty (single model, empty answer)", text)
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if len(attempts) != 1 || attempts[0].Model != "spec/b" {
		t.Errorf("attempts = %+v", attempts)
	}
}

func TestCascade_ExhaustedReturnsAttempts(t *testing.T) {
	mock := NewMockVisionClient()
	mock.ShouldFail = true
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers(), DefaultModel: "spec/a"}, nil)

	text, model, attempts, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "" || model != "" {
		t.Errorf("text = %q, model = %q, want empty", text, model)
	}
	if len(attempts) != 4 {
		t.Fatalf("attempts = %d, want 4 (every tier model once)", len(attempts))
	}
	for _, a := range attempts {
		if a.Status != AttemptError {
			t.Errorf("attempt %s status = %q, want error", a.Model, a.Status)
		}
		if a.Reason == "" {
			t.Errorf("attempt %s has no reason", a.Model)
		}
	}
}

func TestCascade_ContextCancelledStopsWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockVisionClient()
	c := NewCascade(mock, CascadeConfig{Tiers: testTiers()}, nil)

	_, _, _, err := c.ExtractText(ctx, []byte("img"), nil, ExtractOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if got := mock.RequestCount(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestCascade_Unavailable(t *testing.T) {
	c := NewCascade(nil, CascadeConfig{}, nil)
	if c.Available() {
		t.Error("cascade with nil client reported available")
	}
	if _, _, _, err := c.ExtractText(context.Background(), []byte("img"), nil, ExtractOptions{}); err == nil {
		t.Error("expected error from unavailable cascade")
	}
}

func TestModelOrder_DefaultFirstAndDeduplicated(t *testing.T) {
	c := NewCascade(NewMockVisionClient(), CascadeConfig{Tiers: testTiers(), DefaultModel: "gen/a"}, nil)

	order := c.ModelOrder(ExtractOptions{})
	if order[0] != "gen/a" {
		t.Errorf("order[0] = %q, want default model", order[0])
	}
	seen := map[string]bool{}
	for _, m := range order {
		if seen[m] {
			t.Errorf("model %s appears twice", m)
		}
		seen[m] = true
	}
	if len(order) != 4 {
		t.Errorf("order = %v, want 4 models", order)
	}
}

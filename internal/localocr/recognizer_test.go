package localocr

import (
	"context"
	"errors"
	"testing"
)

// fakeEngine records calls and replies from a scripted response list.
type fakeEngine struct {
	available bool
	responses []string
	errs      []error
	calls     []fakeCall
}

type fakeCall struct {
	languages string
	psm       PageSegMode
}

func (f *fakeEngine) Available() bool { return f.available }

func (f *fakeEngine) Recognize(ctx context.Context, image []byte, languages string, psm PageSegMode) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, fakeCall{languages: languages, psm: psm})
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

func TestMapLanguages(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"rus", "eng"}, "rus+eng"},
		{[]string{"ru", "en"}, "rus+eng"},
		{[]string{"Russian", "ENGLISH"}, "rus+eng"},
		{[]string{"rus", "ru", "russian"}, "rus"},
		{[]string{"klingon"}, "eng"},
		{[]string{}, "eng"},
		{nil, "eng"},
	}
	for _, tt := range tests {
		if got := MapLanguages(tt.in); got != tt.want {
			t.Errorf("MapLanguages(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecognize_SparseTextFirst(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		responses: []string{"Ra 1.6  GOST 1050-88  Steel 45"},
	}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.Recognize(context.Background(), []byte("img"), []string{"rus", "eng"})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "Ra 1.6  GOST 1050-88  Steel 45" {
		t.Errorf("text = %q", text)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("calls = %d, want 1 (first mode succeeded)", len(engine.calls))
	}
	if engine.calls[0].psm != PSMSparseText {
		t.Errorf("first psm = %d, want sparse text (%d)", engine.calls[0].psm, PSMSparseText)
	}
	if engine.calls[0].languages != "rus+eng" {
		t.Errorf("languages = %q, want rus+eng", engine.calls[0].languages)
	}
}

func TestRecognize_WalksModeLadder(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		responses: []string{"", "x", "this one clears the threshold"},
	}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "this one clears the threshold" {
		t.Errorf("text = %q", text)
	}

	wantOrder := []PageSegMode{PSMSparseText, PSMSingleBlock, PSMSingleColumn}
	if len(engine.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(engine.calls))
	}
	for i, call := range engine.calls {
		if call.psm != wantOrder[i] {
			t.Errorf("call %d psm = %d, want %d", i, call.psm, wantOrder[i])
		}
	}
}

func TestRecognize_BoundedAttempts(t *testing.T) {
	// All passes empty: 3 modes x 3 preprocessing variants = 9 calls,
	// never more.
	engine := &fakeEngine{available: true}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if len(engine.calls) != 9 {
		t.Errorf("calls = %d, want 9", len(engine.calls))
	}
}

func TestRecognize_KeepsLastShortText(t *testing.T) {
	// Every pass stays under the threshold; the last non-empty text is
	// still returned rather than discarded.
	engine := &fakeEngine{
		available: true,
		responses: []string{"", "", "", "", "Ra 3.2", "", "", "", ""},
	}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "Ra 3.2" {
		t.Errorf("text = %q, want %q", text, "Ra 3.2")
	}
}

func TestRecognize_EngineErrorsSkipToNextMode(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		errs:      []error{errors.New("boom"), nil},
		responses: []string{"", "recovered on the second mode"},
	}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "recovered on the second mode" {
		t.Errorf("text = %q", text)
	}
}

func TestRecognize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{available: true}
	r := NewRecognizer(engine, Config{}, nil)

	if _, err := r.Recognize(ctx, []byte("img"), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRecognizePages_JoinsWithPageBreak(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		responses: []string{"page one content here", "page two content here"},
	}
	r := NewRecognizer(engine, Config{}, nil)

	text, err := r.RecognizePages(context.Background(), [][]byte{[]byte("p1"), []byte("p2")}, nil)
	if err != nil {
		t.Fatalf("RecognizePages() error = %v", err)
	}
	want := "page one content here" + PageBreakMarker + "page two content here"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestRecognizer_Available(t *testing.T) {
	if NewRecognizer(nil, Config{}, nil).Available() {
		t.Error("nil engine reported available")
	}
	if NewRecognizer(&fakeEngine{available: false}, Config{}, nil).Available() {
		t.Error("unavailable engine reported available")
	}
	if !NewRecognizer(&fakeEngine{available: true}, Config{}, nil).Available() {
		t.Error("available engine reported unavailable")
	}
}

package localocr

import (
	"context"
	"log/slog"
	"strings"

	"github.com/retrodraw/retrodraw/internal/preprocess"
)

// PageBreakMarker joins per-page texts in multi-page output.
const PageBreakMarker = "\n\n--- Page Break ---\n\n"

// minUsableLen is the non-whitespace length a recognition pass must
// produce to be accepted without falling through to the next mode.
const minUsableLen = 10

// langMap normalizes caller-supplied language identifiers to Tesseract
// codes. Unrecognized identifiers fall back to the primary language.
var langMap = map[string]string{
	"rus": "rus", "ru": "rus", "russian": "rus",
	"eng": "eng", "en": "eng", "english": "eng",
}

const primaryLanguage = "eng"

// MapLanguages converts caller language identifiers to the engine's
// "+"-joined language string.
func MapLanguages(languages []string) string {
	if len(languages) == 0 {
		return primaryLanguage
	}
	codes := make([]string, 0, len(languages))
	seen := make(map[string]bool)
	for _, lang := range languages {
		code, ok := langMap[strings.ToLower(strings.TrimSpace(lang))]
		if !ok {
			code = primaryLanguage
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, "+")
}

// Config tunes the recognizer. Zero values use defaults.
type Config struct {
	// PageSegModes is the ordered list of segmentation modes to try.
	PageSegModes []PageSegMode
	// Preprocess options applied on the enhancement retries.
	Preprocess preprocess.Options
}

// Recognizer drives the local engine: segmentation-mode ladder first,
// then the same ladder over the enhanced image, then once more over the
// binarized variant. Deterministic, bounded, no network.
type Recognizer struct {
	engine Engine
	cfg    Config
	logger *slog.Logger
}

// NewRecognizer creates a Recognizer around an engine.
func NewRecognizer(engine Engine, cfg Config, logger *slog.Logger) *Recognizer {
	if len(cfg.PageSegModes) == 0 {
		cfg.PageSegModes = DefaultPageSegModes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{engine: engine, cfg: cfg, logger: logger}
}

// Available reports whether the underlying engine is usable.
func (r *Recognizer) Available() bool {
	return r.engine != nil && r.engine.Available()
}

// Recognize extracts text from a single image. When every attempt stays
// under the usable-length threshold, the last non-empty (however short)
// text is returned; the empty string means nothing was recognized.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	langs := MapLanguages(languages)

	variants := [](func() []byte){
		func() []byte { return image },
		func() []byte { return preprocess.EnhanceBytes(image, r.cfg.Preprocess) },
		func() []byte { return preprocess.EnhanceBytesAdvanced(image, r.cfg.Preprocess) },
	}

	lastNonEmpty := ""
	for vi, variant := range variants {
		data := variant()
		for _, psm := range r.cfg.PageSegModes {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			text, err := r.engine.Recognize(ctx, data, langs, psm)
			if err != nil {
				r.logger.Debug("local recognition pass failed",
					"psm", int(psm), "variant", vi, "error", err)
				continue
			}

			if usableLen(text) >= minUsableLen {
				return text, nil
			}
			if strings.TrimSpace(text) != "" {
				lastNonEmpty = text
			}
		}
	}

	return lastNonEmpty, nil
}

// RecognizePages extracts text from multiple page images, joined with
// the page-break marker. Pages that recognize to nothing are kept as
// empty segments so page numbering survives.
func (r *Recognizer) RecognizePages(ctx context.Context, pages [][]byte, languages []string) (string, error) {
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		text, err := r.Recognize(ctx, page, languages)
		if err != nil {
			return "", err
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, PageBreakMarker), nil
}

func usableLen(text string) int {
	n := 0
	for _, r := range text {
		if !strings.ContainsRune(" \t\n\r\v\f", r) {
			n++
		}
	}
	return n
}

package localocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine implements Engine on top of the gosseract Tesseract
// binding. Each call uses a fresh client; clients are cheap relative to
// recognition itself and are not safe for concurrent reuse.
type GosseractEngine struct {
	availableOnce sync.Once
	available     bool
}

// NewGosseractEngine constructs the Tesseract-backed engine.
func NewGosseractEngine() *GosseractEngine {
	return &GosseractEngine{}
}

// Available probes the installation once and caches the answer.
func (e *GosseractEngine) Available() bool {
	e.availableOnce.Do(func() {
		langs, err := gosseract.GetAvailableLanguages()
		e.available = err == nil && len(langs) > 0
	})
	return e.available
}

// Recognize runs a single Tesseract pass.
func (e *GosseractEngine) Recognize(ctx context.Context, image []byte, languages string, psm PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			return "", fmt.Errorf("failed to set languages %q: %w", languages, err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode %d: %w", psm, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}
	return text, nil
}

var _ Engine = (*GosseractEngine)(nil)

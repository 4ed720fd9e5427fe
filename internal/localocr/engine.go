// Package localocr wraps the local Tesseract engine behind a small
// interface and drives it through an ordered list of page-segmentation
// modes with preprocessing retries.
package localocr

import "context"

// PageSegMode mirrors Tesseract's page-segmentation modes. Technical
// drawings carry scattered callouts rather than paragraphs, so sparse
// text is tried first.
type PageSegMode int

const (
	PSMSingleColumn PageSegMode = 4
	PSMSingleBlock  PageSegMode = 6
	PSMSparseText   PageSegMode = 11
)

// DefaultPageSegModes is the standard attempt order.
var DefaultPageSegModes = []PageSegMode{PSMSparseText, PSMSingleBlock, PSMSingleColumn}

// Engine is the capability interface over a local OCR binary. Absence
// of the engine is queried once via Available, not discovered per call.
type Engine interface {
	// Available reports whether the engine and its language data are
	// usable on this host.
	Available() bool

	// Recognize runs OCR over a single image with the given engine
	// language string (e.g. "rus+eng") and segmentation mode.
	Recognize(ctx context.Context, image []byte, languages string, psm PageSegMode) (string, error)
}

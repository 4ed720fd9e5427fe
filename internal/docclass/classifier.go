// Package docclass decides what kind of document a byte buffer holds and
// whether its pages carry a usable embedded text layer.
package docclass

import (
	"log/slog"
	"strings"
)

// Kind is the document classification outcome.
type Kind string

const (
	// Vector documents carry a machine-readable text layer on most pages.
	Vector Kind = "vector"
	// Raster documents are pixel-only (scans, photos, images).
	Raster Kind = "raster"
	// Mixed documents have a text layer on some pages but not enough to
	// trust it for the whole document.
	Mixed Kind = "mixed"
	// Unknown means the document could not be inspected at all.
	Unknown Kind = "unknown"
)

// Classification is computed once per document and never mutated.
type Classification struct {
	Kind      Kind
	PageCount int
	// TextRatio is pagesWithText / totalPages.
	TextRatio float64
	// AvgCharsPerPage is the mean embedded-text length across pages.
	AvgCharsPerPage float64
	// IsImage is true when the input was a standalone image, not a
	// paged document. Single images take the fast selection path.
	IsImage bool
}

// Thresholds controlling the vector/mixed/raster decision.
const (
	// minPageTextLen is the embedded-text length a page must exceed to
	// count as a text-bearing page.
	minPageTextLen = 50
	// vectorTextRatio and vectorAvgChars gate the Vector classification.
	vectorTextRatio = 0.8
	vectorAvgChars  = 100
	// mixedTextRatio gates the Mixed classification.
	mixedTextRatio = 0.3
)

// TextReader extracts embedded text per page without rasterizing.
type TextReader interface {
	// PageTexts returns one string per page; empty string when a page
	// has no embedded text.
	PageTexts(data []byte) ([]string, error)
}

// RasterProbe tests whether a document can be converted to page images.
type RasterProbe interface {
	// Probe returns the page count and whether page 1 rasterizes.
	Probe(data []byte) (pages int, ok bool)
}

// Classifier inspects raw bytes and produces a Classification.
// Classification never fails; it degrades to Unknown instead.
type Classifier struct {
	text   TextReader
	raster RasterProbe
	logger *slog.Logger
}

// New creates a Classifier. Either backend may be nil when unavailable.
func New(text TextReader, raster RasterProbe, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{text: text, raster: raster, logger: logger}
}

// Classify inspects the document bytes and declared MIME type.
func (c *Classifier) Classify(data []byte, mimeType string) Classification {
	if strings.HasPrefix(mimeType, "image/") {
		return Classification{Kind: Raster, PageCount: 1, IsImage: true}
	}

	if c.text != nil {
		if cls, ok := c.classifyByTextLayer(data); ok {
			return cls
		}
	}

	// Text-layer inspection failed entirely; test convertibility.
	// Scanned documents are the common case, so a rasterizable page 1
	// defaults the document to Raster.
	if c.raster != nil {
		if pages, ok := c.raster.Probe(data); ok {
			if pages < 1 {
				pages = 1
			}
			return Classification{Kind: Raster, PageCount: pages}
		}
	}

	c.logger.Warn("classification degraded", "mime_type", mimeType)
	return Classification{Kind: Unknown, PageCount: 1}
}

func (c *Classifier) classifyByTextLayer(data []byte) (Classification, bool) {
	pages, err := c.text.PageTexts(data)
	if err != nil || len(pages) == 0 {
		return Classification{}, false
	}

	pagesWithText := 0
	totalChars := 0
	for _, text := range pages {
		n := len(strings.TrimSpace(text))
		totalChars += n
		if n > minPageTextLen {
			pagesWithText++
		}
	}

	total := len(pages)
	ratio := float64(pagesWithText) / float64(total)
	avgChars := float64(totalChars) / float64(total)

	cls := Classification{
		PageCount:       total,
		TextRatio:       ratio,
		AvgCharsPerPage: avgChars,
	}

	switch {
	case ratio > vectorTextRatio && avgChars > vectorAvgChars:
		cls.Kind = Vector
	case ratio > mixedTextRatio:
		cls.Kind = Mixed
	default:
		cls.Kind = Raster
	}
	return cls, true
}

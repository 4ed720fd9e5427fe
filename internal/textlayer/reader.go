// Package textlayer reads embedded text straight out of PDF pages,
// without rasterizing. Only meaningful for vector documents.
package textlayer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfMagic identifies a PDF byte buffer.
var pdfMagic = []byte("%PDF")

// IsPDF reports whether the buffer starts with the PDF magic.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Reader extracts per-page embedded text from PDF bytes.
type Reader struct{}

// NewReader creates a text-layer Reader.
func NewReader() *Reader {
	return &Reader{}
}

// PageTexts returns one string per page, empty where a page carries no
// embedded text. A page whose extraction fails yields an empty string;
// only a document that cannot be opened at all returns an error.
func (r *Reader) PageTexts(data []byte) ([]string, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("not a PDF document")
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := doc.NumPage()
	if total < 1 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, pageText(doc, i))
	}
	return pages, nil
}

// Extract returns the whole document's text layer with per-page markers,
// plus the page count. Pages without text are skipped in the output.
func (r *Reader) Extract(data []byte) (string, int, error) {
	pages, err := r.PageTexts(data)
	if err != nil {
		return "", 0, err
	}

	var parts []string
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i+1, text))
	}
	return strings.Join(parts, "\n\n"), len(pages), nil
}

func pageText(doc *pdf.Reader, num int) (text string) {
	// The underlying parser panics on some malformed content streams;
	// a broken page degrades to empty rather than failing the document.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := doc.Page(num)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

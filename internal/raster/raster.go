// Package raster turns PDF pages into recognizable images. Scanned
// drawings embed each page as a single full-page image, so extracting
// embedded page images stands in for full rasterization.
package raster

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/retrodraw/retrodraw/internal/textlayer"
)

// Converter extracts page images from PDF bytes.
type Converter struct{}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// PageCount returns the number of pages in the document.
func (c *Converter) PageCount(data []byte) (int, error) {
	if !textlayer.IsPDF(data) {
		return 0, fmt.Errorf("not a PDF document")
	}
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// PageImages returns one image per page, ordered by page number. Pages
// without an extractable image are omitted.
func (c *Converter) PageImages(data []byte) ([][]byte, error) {
	if !textlayer.IsPDF(data) {
		return nil, fmt.Errorf("not a PDF document")
	}

	extracted, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	images := orderedPageImages(extracted)
	if len(images) == 0 {
		return nil, fmt.Errorf("document contains no page images")
	}
	return images, nil
}

// orderedPageImages flattens pdfcpu's extraction result into page order.
// The maps are keyed by image object number, not page number; the page
// lives in each image's PageNr field. Page thumbnails land in the same
// maps and are not page content, so they are dropped.
func orderedPageImages(extracted []map[int]model.Image) [][]byte {
	type pageImage struct {
		page int
		data []byte
	}
	var images []pageImage
	for _, objMap := range extracted {
		for _, img := range objMap {
			if img.Thumb {
				continue
			}
			raw, err := io.ReadAll(img)
			if err != nil || len(raw) == 0 {
				continue
			}
			images = append(images, pageImage{page: img.PageNr, data: raw})
		}
	}

	sort.SliceStable(images, func(i, j int) bool { return images[i].page < images[j].page })

	out := make([][]byte, 0, len(images))
	for _, img := range images {
		out = append(out, img.data)
	}
	return out
}

// Probe reports the page count and whether the document yields at least
// one page image. Used by the classifier's degraded path.
func (c *Converter) Probe(data []byte) (int, bool) {
	pages, err := c.PageCount(data)
	if err != nil {
		return 0, false
	}
	images, err := c.PageImages(data)
	if err != nil || len(images) == 0 {
		return pages, false
	}
	return pages, true
}

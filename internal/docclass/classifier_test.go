package docclass

import (
	"errors"
	"strings"
	"testing"
)

type fakeTextReader struct {
	pages []string
	err   error
}

func (f *fakeTextReader) PageTexts(data []byte) ([]string, error) {
	return f.pages, f.err
}

type fakeRasterProbe struct {
	pages int
	ok    bool
}

func (f *fakeRasterProbe) Probe(data []byte) (int, bool) {
	return f.pages, f.ok
}

func TestClassify_ImageMIME(t *testing.T) {
	c := New(nil, nil, nil)

	for _, mime := range []string{"image/png", "image/jpeg", "image/tiff"} {
		cls := c.Classify([]byte{0x89, 0x50}, mime)
		if cls.Kind != Raster {
			t.Errorf("%s: Kind = %s, want raster", mime, cls.Kind)
		}
		if cls.PageCount != 1 {
			t.Errorf("%s: PageCount = %d, want 1", mime, cls.PageCount)
		}
		if !cls.IsImage {
			t.Errorf("%s: IsImage = false, want true", mime)
		}
	}
}

func TestClassify_TextLayerThresholds(t *testing.T) {
	longPage := strings.Repeat("x", 200)
	shortPage := "Ra 1.6"

	tests := []struct {
		name  string
		pages []string
		want  Kind
	}{
		{
			name:  "all pages with rich text is vector",
			pages: []string{longPage, longPage, longPage},
			want:  Vector,
		},
		{
			name: "high ratio but thin pages is mixed",
			// Every page clears the 50-char page threshold but the
			// document average stays at or below 100 chars/page.
			pages: []string{strings.Repeat("y", 60), strings.Repeat("y", 60)},
			want:  Mixed,
		},
		{
			name:  "half the pages with text is mixed",
			pages: []string{longPage, shortPage},
			want:  Mixed,
		},
		{
			name:  "mostly empty pages is raster",
			pages: []string{shortPage, "", "", ""},
			want:  Raster,
		},
		{
			name:  "no embedded text at all is raster",
			pages: []string{"", "", ""},
			want:  Raster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeTextReader{pages: tt.pages}, nil, nil)
			cls := c.Classify([]byte("%PDF-1.4"), "application/pdf")
			if cls.Kind != tt.want {
				t.Errorf("Kind = %s, want %s (ratio=%.2f avg=%.1f)",
					cls.Kind, tt.want, cls.TextRatio, cls.AvgCharsPerPage)
			}
			if cls.PageCount != len(tt.pages) {
				t.Errorf("PageCount = %d, want %d", cls.PageCount, len(tt.pages))
			}
		})
	}
}

func TestClassify_SinglePageVector(t *testing.T) {
	// A single-page PDF with a 500-character text layer classifies as
	// vector: ratio 1.0, average 500 chars.
	c := New(&fakeTextReader{pages: []string{strings.Repeat("a", 500)}}, nil, nil)
	cls := c.Classify([]byte("%PDF-1.4"), "application/pdf")
	if cls.Kind != Vector {
		t.Fatalf("Kind = %s, want vector", cls.Kind)
	}
	if cls.TextRatio != 1.0 {
		t.Errorf("TextRatio = %f, want 1.0", cls.TextRatio)
	}
}

func TestClassify_TextLayerFails(t *testing.T) {
	t.Run("raster probe succeeds", func(t *testing.T) {
		c := New(
			&fakeTextReader{err: errors.New("broken xref")},
			&fakeRasterProbe{pages: 7, ok: true},
			nil,
		)
		cls := c.Classify([]byte("%PDF-1.4"), "application/pdf")
		if cls.Kind != Raster {
			t.Errorf("Kind = %s, want raster", cls.Kind)
		}
		if cls.PageCount != 7 {
			t.Errorf("PageCount = %d, want 7", cls.PageCount)
		}
	})

	t.Run("raster probe fails too", func(t *testing.T) {
		c := New(
			&fakeTextReader{err: errors.New("broken xref")},
			&fakeRasterProbe{ok: false},
			nil,
		)
		cls := c.Classify([]byte("not a pdf"), "application/pdf")
		if cls.Kind != Unknown {
			t.Errorf("Kind = %s, want unknown", cls.Kind)
		}
		if cls.PageCount != 1 {
			t.Errorf("PageCount = %d, want 1", cls.PageCount)
		}
	})

	t.Run("no backends at all", func(t *testing.T) {
		c := New(nil, nil, nil)
		cls := c.Classify([]byte("whatever"), "application/pdf")
		if cls.Kind != Unknown {
			t.Errorf("Kind = %s, want unknown", cls.Kind)
		}
	})
}

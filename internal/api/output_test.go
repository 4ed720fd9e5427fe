package api

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"method_used": "text_layer", "page_count": 2}

	tests := []struct {
		name   string
		format OutputFormat
		want   []string
	}{
		{
			name:   "json is indented",
			format: OutputFormatJSON,
			want:   []string{"{\n", `"method_used": "text_layer"`, `"page_count": 2`},
		},
		{
			name:   "yaml uses two-space indent",
			format: OutputFormatYAML,
			want:   []string{"method_used: text_layer", "page_count: 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, data); err != nil {
				t.Fatalf("OutputTo() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}

	t.Run("unknown format errors", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormat("toml"), data); err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat_FallsBackToYAML(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if outputFormat != OutputFormatJSON {
		t.Errorf("format = %s, want json", outputFormat)
	}

	SetOutputFormat("bogus")
	if outputFormat != OutputFormatYAML {
		t.Errorf("format = %s, want yaml fallback", outputFormat)
	}
}

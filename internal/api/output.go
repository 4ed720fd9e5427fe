package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat names a CLI rendering format for endpoint responses.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

// outputFormat holds the format picked by the root --output flag.
// YAML reads best for recognition traces, so it is the default.
var outputFormat = OutputFormatYAML

// SetOutputFormat selects the format endpoint commands print in.
// Unrecognized values fall back to YAML.
func SetOutputFormat(format string) {
	switch OutputFormat(format) {
	case OutputFormatJSON:
		outputFormat = OutputFormatJSON
	default:
		outputFormat = OutputFormatYAML
	}
}

// Output prints an endpoint response to stdout in the selected format.
func Output(data any) error {
	return OutputTo(os.Stdout, outputFormat, data)
}

// OutputTo encodes data to w in the given format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

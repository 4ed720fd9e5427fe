package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema rejects obviously broken config before it goes live;
// hot reload keeps the previous config when a rewrite fails here.
var configSchema = jsonschema.MustCompileString("config.json", `{
	"type": "object",
	"properties": {
		"server": {
			"type": "object",
			"properties": {
				"host": {"type": "string", "minLength": 1},
				"port": {"type": "integer", "minimum": 1, "maximum": 65535}
			}
		},
		"languages": {
			"type": "array",
			"items": {"type": "string", "minLength": 2}
		},
		"preprocess": {
			"type": "object",
			"properties": {
				"contrast": {"type": "number", "exclusiveMinimum": 0},
				"dpi_floor": {"type": "integer", "minimum": 1}
			}
		},
		"local": {
			"type": "object",
			"properties": {
				"page_seg_modes": {
					"type": "array",
					"items": {"type": "integer", "minimum": 0, "maximum": 13}
				}
			}
		},
		"providers": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"properties": {
					"type": {"type": "string", "enum": ["openrouter", "groq"]},
					"timeout_seconds": {"type": "integer", "minimum": 0}
				}
			}
		},
		"remote": {
			"type": "object",
			"properties": {
				"max_tokens": {"type": "integer", "minimum": 0}
			}
		}
	}
}`)

// Validate checks a parsed config against the schema.
func Validate(cfg *Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config for validation: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to decode config for validation: %w", err)
	}
	if err := configSchema.Validate(generic); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

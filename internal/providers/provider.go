// Package providers holds the remote vision-model clients and the
// model-priority cascade that drives them.
package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VisionClient is a single remote vision-language endpoint. One call is
// one model attempt; the cascade owns ordering and fallback.
type VisionClient interface {
	// Name returns the client identifier (e.g. "openrouter", "groq").
	Name() string

	// ExtractText sends one OCR request to one model. A transport or
	// HTTP failure returns an error; a model that answered with empty
	// or refusal content returns a result with that content, which the
	// cascade classifies.
	ExtractText(ctx context.Context, req *VisionRequest) (*VisionResult, error)
}

// VisionRequest is one model call.
type VisionRequest struct {
	// Model is the model identifier to invoke.
	Model string
	// Prompt is the OCR instruction text.
	Prompt string
	// Image is the raw image; clients base64-encode it into a data URL.
	Image []byte
	// Temperature and MaxTokens shape generation. OCR wants 0 / large.
	Temperature float64
	MaxTokens   int
	// RequestID stamps the call for tracing.
	RequestID string
}

// VisionResult is the outcome of one model call.
type VisionResult struct {
	Content          string
	ModelUsed        string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Elapsed          time.Duration
}

// langNames maps caller language identifiers to the names used in
// recognition prompts.
var langNames = map[string]string{
	"rus": "Russian", "ru": "Russian", "russian": "Russian",
	"eng": "English", "en": "English", "english": "English",
}

// LanguageNames renders a comma-separated human-readable language list
// for prompts; unknown identifiers pass through unchanged.
func LanguageNames(languages []string) string {
	if len(languages) == 0 {
		return "Russian, English"
	}
	names := make([]string, 0, len(languages))
	for _, lang := range languages {
		if name, ok := langNames[strings.ToLower(strings.TrimSpace(lang))]; ok {
			names = append(names, name)
		} else {
			names = append(names, lang)
		}
	}
	return strings.Join(names, ", ")
}

// OCRPrompt builds the fixed OCR-specialized prompt: exhaustive,
// structure-preserving, bilingual extraction with no commentary.
func OCRPrompt(languages []string) string {
	return fmt.Sprintf(`You are a professional OCR system with the highest recognition accuracy. Extract ALL text from this image of a technical drawing.

CRITICAL:
- Languages to recognize: %s
- Extract every visible character, digit, letter and symbol
- Preserve the exact structure: line breaks, paragraphs, placement
- Include all callouts, dimensions, designations and standards (GOST, OST, TU)
- Include technical terms, material grades and part numbers

Return ONLY the extracted text, with no explanations, comments or formatting. The text must be as complete and accurate as possible.`,
		LanguageNames(languages))
}

package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	GroqName    = "groq"
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// GroqConfig holds configuration for the Groq client.
type GroqConfig struct {
	APIKey     string
	BaseURL    string // Optional (tests)
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// GroqClient implements VisionClient against Groq's OpenAI-compatible
// API using the official OpenAI SDK. Like the OpenRouter client, one
// call is one attempt; the SDK's own retries are disabled so the
// cascade stays in charge of fallback.
type GroqClient struct {
	client openai.Client
}

// NewGroqClient creates a new Groq client.
func NewGroqClient(cfg GroqConfig) *GroqClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultCallTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &GroqClient{client: client}
}

// Name returns the client identifier.
func (c *GroqClient) Name() string {
	return GroqName
}

// ExtractText sends one vision OCR request to one model.
func (c *GroqClient) ExtractText(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	start := time.Now()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(req.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("groq chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &VisionResult{
		Content:          resp.Choices[0].Message.Content,
		ModelUsed:        resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		Elapsed:          time.Since(start),
	}, nil
}

var _ VisionClient = (*GroqClient)(nil)

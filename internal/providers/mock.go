package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockVisionClient is a VisionClient for testing. Responses are keyed
// by model name; models without an entry reply with ResponseText.
type MockVisionClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	// Responses overrides ResponseText per model.
	Responses map[string]string
	// Errors forces a transport error per model.
	Errors map[string]error

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	models       []string
}

// NewMockVisionClient creates a mock with sensible defaults.
func NewMockVisionClient() *MockVisionClient {
	return &MockVisionClient{
		ResponseText: "mock extracted text",
	}
}

// Name returns the client identifier.
func (c *MockVisionClient) Name() string {
	return MockClientName
}

// ExtractText replies from the scripted responses.
func (c *MockVisionClient) ExtractText(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.models = append(c.models, req.Model)
	c.mu.Unlock()

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return nil, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}
	if err, ok := c.Errors[req.Model]; ok {
		return nil, err
	}

	content := c.ResponseText
	if text, ok := c.Responses[req.Model]; ok {
		content = text
	}

	return &VisionResult{
		Content:          content,
		ModelUsed:        req.Model,
		PromptTokens:     len(req.Prompt) / 4,
		CompletionTokens: len(content) / 4,
		TotalTokens:      (len(req.Prompt) + len(content)) / 4,
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockVisionClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// ModelsCalled returns the model IDs in call order.
func (c *MockVisionClient) ModelsCalled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.models...)
}

// Reset clears the call history.
func (c *MockVisionClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.models = nil
	c.mu.Unlock()
}

// Verify interface
var _ VisionClient = (*MockVisionClient)(nil)

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiLLMClient implements LLMClient using the Gemini API.
type GeminiLLMClient struct {
	log       *slog.Logger
	apiKey    string
	model     string
	maxTokens int32

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiLLMClient creates a new Gemini-based LLM client. The underlying
// SDK client is created lazily on the first call.
func NewGeminiLLMClient(log *slog.Logger, apiKey, model string, maxTokens int32) *GeminiLLMClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiLLMClient{
		log:       log,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *GeminiLLMClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return c.client, c.initErr
}

// Complete sends a prompt to Gemini and returns the response text.
func (c *GeminiLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := c.genaiClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	start := time.Now()
	c.log.Info("Gemini API call starting", "model", c.model, "maxTokens", c.maxTokens, "promptLen", len(prompt))

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	duration := time.Since(start)
	if err != nil {
		c.log.Error("Gemini API call failed", "duration", duration, "error", err)
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	c.log.Info("Gemini API call completed", "duration", duration, "candidates", len(result.Candidates))

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}

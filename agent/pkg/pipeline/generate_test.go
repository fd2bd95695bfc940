package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLMClient struct {
	text  string
	err   error
	calls int
}

func (m *mockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.text, m.err
}

func TestDegradingGenerator(t *testing.T) {
	tests := []struct {
		name        string
		llm         *mockLLMClient
		want        string
		wantFailure bool
	}{
		{
			name: "passes text through",
			llm:  &mockLLMClient{text: "```json\n[]\n```"},
			want: "```json\n[]\n```",
		},
		{
			name:        "error becomes sentinel",
			llm:         &mockLLMClient{err: errors.New("429 too many requests")},
			want:        GenerationFailedSentinel,
			wantFailure: true,
		},
		{
			name:        "empty text becomes sentinel",
			llm:         &mockLLMClient{text: ""},
			want:        GenerationFailedSentinel,
			wantFailure: true,
		},
		{
			name:        "whitespace text becomes sentinel",
			llm:         &mockLLMClient{text: " \n\t"},
			want:        GenerationFailedSentinel,
			wantFailure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := testutil.ToFloat64(GenerationFailuresTotal)
			g := NewDegradingGenerator(nil, tt.llm)
			require.Equal(t, tt.want, g.Generate(context.Background(), "prompt"))
			assert.Equal(t, 1, tt.llm.calls, "generation must not retry")

			wantDelta := 0.0
			if tt.wantFailure {
				wantDelta = 1
			}
			assert.Equal(t, wantDelta, testutil.ToFloat64(GenerationFailuresTotal)-failures)
		})
	}
}

func TestNewLLMClient(t *testing.T) {
	t.Run("gemini requires key", func(t *testing.T) {
		_, err := NewLLMClient(nil, LLMConfig{Provider: ProviderGemini})
		require.Error(t, err)
	})

	t.Run("gemini is the default", func(t *testing.T) {
		c, err := NewLLMClient(nil, LLMConfig{APIKey: "test-key"})
		require.NoError(t, err)
		gc, ok := c.(*GeminiLLMClient)
		require.True(t, ok)
		assert.Equal(t, defaultGeminiModel, gc.model)
		assert.EqualValues(t, 4096, gc.maxTokens)
	})

	t.Run("anthropic", func(t *testing.T) {
		c, err := NewLLMClient(nil, LLMConfig{Provider: ProviderAnthropic, APIKey: "test-key", MaxTokens: 1024})
		require.NoError(t, err)
		ac, ok := c.(*AnthropicLLMClient)
		require.True(t, ok)
		assert.EqualValues(t, 1024, ac.maxTokens)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewLLMClient(nil, LLMConfig{Provider: "openai", APIKey: "k"})
		require.ErrorContains(t, err, "unknown LLM provider")
	})
}

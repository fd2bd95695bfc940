package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// GenerationFailedSentinel is returned in place of generated text whenever
// the generation service call fails.
const GenerationFailedSentinel = "content generation failed"

// LLMClient is the interface for interacting with a text-generation service.
type LLMClient interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator turns a prompt into text. It never fails: implementations
// degrade to a placeholder string instead.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// DegradingGenerator wraps an LLMClient and swallows every failure into
// GenerationFailedSentinel. Failures are only visible in logs and metrics.
// It does not retry.
type DegradingGenerator struct {
	log *slog.Logger
	llm LLMClient
}

// NewDegradingGenerator creates a Generator backed by llm.
func NewDegradingGenerator(log *slog.Logger, llm LLMClient) *DegradingGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &DegradingGenerator{log: log, llm: llm}
}

var errEmptyCompletion = errors.New("no content generated")

// Generate calls the underlying client once.
func (g *DegradingGenerator) Generate(ctx context.Context, prompt string) string {
	start := time.Now()
	text, err := g.llm.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyCompletion
	}
	GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		GenerationFailuresTotal.Inc()
		g.log.Error("pipeline: generation failed, returning sentinel", "error", err, "duration", time.Since(start), "promptLen", len(prompt))
		return GenerationFailedSentinel
	}
	g.log.Debug("pipeline: generation completed", "duration", time.Since(start), "responseLen", len(text))
	return text
}

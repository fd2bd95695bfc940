// Package pipeline answers analytical questions about the superstore dataset.
// A question is turned into a MongoDB aggregation pipeline by a text
// generation service, executed, corrected on failure using the error as
// feedback, and finally summarized into a natural-language report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Analyst orchestrates the self-correction loop and report synthesis. It
// holds no per-request state and is safe for concurrent use.
type Analyst struct {
	cfg *Config
	log *slog.Logger
}

// New creates a new Analyst.
func New(cfg *Config) (*Analyst, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate pipeline config: %w", err)
	}
	return &Analyst{
		cfg: cfg,
		log: cfg.Logger,
	}, nil
}

// Analyze runs the self-correction loop for the question and synthesizes a
// report from whatever results were obtained. The only error is
// ErrEmptyQuestion; every other failure degrades the report content instead.
func (a *Analyst) Analyze(ctx context.Context, question string) (*Analysis, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	id := uuid.NewString()
	log := a.log.With("analysis", id)
	log.Info("pipeline: analysis started", "question", question)

	loop := a.RunLoop(ctx, question)
	log.Info("pipeline: loop finished", "state", loop.State, "attempts", len(loop.Attempts), "documents", len(loop.Results))

	report := a.SynthesizeReport(ctx, question, loop.Results)
	log.Info("pipeline: analysis completed", "reportLen", len(report))

	return &Analysis{
		ID:       id,
		Question: question,
		State:    loop.State,
		Attempts: loop.Attempts,
		Results:  loop.Results,
		Report:   report,
	}, nil
}

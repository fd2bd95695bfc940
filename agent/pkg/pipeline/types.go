package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	// DefaultMaxRetries is the number of correction rounds allowed beyond the
	// initial attempt.
	DefaultMaxRetries = 2

	// DefaultMaxReportRows caps the number of result documents rendered into
	// the report prompt.
	DefaultMaxReportRows = 200
)

// ErrEmptyQuestion is returned by Analyze when the question is blank.
var ErrEmptyQuestion = errors.New("question is required")

// Stage is one aggregation stage, e.g. {"$match": {...}}. The key order is
// preserved so that stages such as $sort keep their meaning.
type Stage = bson.D

// Pipeline is an ordered sequence of stages. Each stage consumes the output
// of the previous one.
type Pipeline []Stage

// ResultSet is the ordered sequence of documents returned by the engine.
type ResultSet []bson.D

// BoundPolicy decides what happens to the corrected pipeline produced when
// the attempt index reaches MaxRetries.
type BoundPolicy string

const (
	// BoundDiscardFinal gives up as soon as the attempt index reaches
	// MaxRetries, without generating or executing another pipeline.
	BoundDiscardFinal BoundPolicy = "discard-final"

	// BoundExecuteFinal generates and executes the pipeline at index
	// MaxRetries, giving up only once the index would exceed it.
	BoundExecuteFinal BoundPolicy = "execute-final"
)

// ParseBoundPolicy converts a flag or environment value into a BoundPolicy.
func ParseBoundPolicy(s string) (BoundPolicy, error) {
	switch BoundPolicy(s) {
	case "", BoundDiscardFinal:
		return BoundDiscardFinal, nil
	case BoundExecuteFinal:
		return BoundExecuteFinal, nil
	}
	return "", fmt.Errorf("invalid bound policy %q (expected %q or %q)", s, BoundDiscardFinal, BoundExecuteFinal)
}

// Executor runs a pipeline against the dataset engine.
type Executor interface {
	// Execute submits the stages as one aggregation. Engine rejections are
	// returned as *ExecutionError.
	Execute(ctx context.Context, p Pipeline) (ResultSet, error)
}

// Config holds the configuration for the analyst.
type Config struct {
	Logger    *slog.Logger
	Generator Generator
	Executor  Executor
	Prompts   *Prompts

	MaxRetries  int         // Attempt bound; zero means unset and selects DefaultMaxRetries
	BoundPolicy BoundPolicy // Behavior at the retry bound (default BoundDiscardFinal)

	// OnProgress, if set, is called on every loop state transition.
	OnProgress ProgressCallback
}

// Validate checks required fields and fills in defaults. A zero MaxRetries
// means unset and becomes DefaultMaxRetries.
func (cfg *Config) Validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Executor == nil {
		return errors.New("executor is required")
	}
	if cfg.Prompts == nil {
		return errors.New("prompts are required")
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", cfg.MaxRetries)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BoundPolicy == "" {
		cfg.BoundPolicy = BoundDiscardFinal
	}
	if _, err := ParseBoundPolicy(string(cfg.BoundPolicy)); err != nil {
		return err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return nil
}

// State is a state of the self-correction loop.
type State string

const (
	StateGenerating State = "generating"
	StateParsing    State = "parsing"
	StateExecuting  State = "executing"
	StateCorrecting State = "correcting"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// Terminal reports whether the loop stops in this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted
}

// AttemptState is the working state of one loop iteration.
type AttemptState struct {
	Index    int      // 0-based attempt index
	Text     string   // Sanitized pipeline text produced by the generator
	Pipeline Pipeline // Parsed pipeline, nil if parsing failed
	Err      error    // *MalformedPipelineError or *ExecutionError, nil on success
}

// Progress is reported to the OnProgress callback.
type Progress struct {
	State   State
	Attempt AttemptState
}

// ProgressCallback is called at each state transition of the loop.
type ProgressCallback func(Progress)

// LoopResult is the outcome of the self-correction loop. It never carries an
// error: exhaustion degrades to an empty result set.
type LoopResult struct {
	State    State
	Results  ResultSet
	Attempts []AttemptState
}

// Analysis is the complete record of one analytical request.
type Analysis struct {
	ID       string
	Question string
	State    State
	Attempts []AttemptState
	Results  ResultSet
	Report   string
}

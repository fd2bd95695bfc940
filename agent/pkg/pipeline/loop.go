package pipeline

import (
	"context"
	"errors"
)

// RunLoop drives generation, sanitization, execution and correction for one
// question. It is strictly sequential and always resolves to a result set:
// when the attempt bound is reached the result set is empty.
func (a *Analyst) RunLoop(ctx context.Context, question string) LoopResult {
	log := a.log.With("question", question)
	schema := a.cfg.Prompts.Schema

	var attempts []AttemptState
	cur := AttemptState{Index: 0}

	a.progress(StateGenerating, cur)
	raw := a.cfg.Generator.Generate(ctx, a.cfg.Prompts.RenderSynthesis(question, schema))

	for {
		a.progress(StateParsing, cur)
		text, p, err := SanitizeAndParse(raw)
		cur.Text = text
		cur.Pipeline = p

		if err == nil {
			a.progress(StateExecuting, cur)
			log.Info("pipeline: executing", "attempt", cur.Index, "stages", len(p))
			var results ResultSet
			results, err = a.cfg.Executor.Execute(ctx, p)
			if err == nil {
				attempts = append(attempts, cur)
				a.progress(StateSucceeded, cur)
				log.Info("pipeline: execution succeeded", "attempt", cur.Index, "documents", len(results))
				return a.finish(StateSucceeded, results, attempts)
			}
			err = asExecutionError(err)
		}

		cur.Err = err
		attempts = append(attempts, cur)
		LoopErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		log.Warn("pipeline: attempt failed", "attempt", cur.Index, "error", err)

		// Correcting: the prior attempt's text and error become feedback.
		a.progress(StateCorrecting, cur)
		prev := cur
		cur = AttemptState{Index: prev.Index + 1}
		if a.exhausted(cur.Index) {
			a.progress(StateExhausted, cur)
			log.Error("pipeline: max retries reached, returning empty results", "attempts", len(attempts), "policy", a.cfg.BoundPolicy)
			return a.finish(StateExhausted, ResultSet{}, attempts)
		}

		a.progress(StateGenerating, cur)
		raw = a.cfg.Generator.Generate(ctx, a.cfg.Prompts.RenderCorrection(prev.Text, question, feedback(prev.Err), schema))
	}
}

// exhausted reports whether the loop must stop before attempt index.
func (a *Analyst) exhausted(index int) bool {
	if a.cfg.BoundPolicy == BoundExecuteFinal {
		return index > a.cfg.MaxRetries
	}
	return index >= a.cfg.MaxRetries
}

func (a *Analyst) finish(state State, results ResultSet, attempts []AttemptState) LoopResult {
	LoopOutcomesTotal.WithLabelValues(string(state)).Inc()
	LoopAttempts.Observe(float64(len(attempts)))
	return LoopResult{State: state, Results: results, Attempts: attempts}
}

func (a *Analyst) progress(state State, attempt AttemptState) {
	a.log.Debug("pipeline: state", "state", state, "attempt", attempt.Index)
	if a.cfg.OnProgress != nil {
		a.cfg.OnProgress(Progress{State: state, Attempt: attempt})
	}
}

// asExecutionError makes sure any executor failure carries feedback text.
func asExecutionError(err error) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	return &ExecutionError{Message: err.Error(), Err: err}
}

func errorKind(err error) string {
	var malformed *MalformedPipelineError
	if errors.As(err, &malformed) {
		return "malformed"
	}
	return "execution"
}

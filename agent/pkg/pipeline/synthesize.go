package pipeline

import "context"

// SynthesizeReport renders the report prompt for the question and results and
// returns the generator's output verbatim. An empty result set still yields a
// best-effort report; a failed generation yields the sentinel.
func (a *Analyst) SynthesizeReport(ctx context.Context, question string, results ResultSet) string {
	prompt := a.cfg.Prompts.RenderReport(question, results)
	a.log.Debug("pipeline: synthesizing report", "documents", len(results), "promptLen", len(prompt))
	return a.cfg.Generator.Generate(ctx, prompt)
}

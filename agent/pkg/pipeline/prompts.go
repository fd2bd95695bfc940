package pipeline

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline/prompts"
)

const (
	placeholderQuestion = "{{QUESTION}}"
	placeholderSchema   = "{{SCHEMA}}"
	placeholderPipeline = "{{PIPELINE}}"
	placeholderError    = "{{ERROR}}"
	placeholderData     = "{{DATA}}"
)

// Prompts contains the prompt templates and the schema description loaded
// from embedded files. It is read-only after LoadPrompts returns and is safe
// to share between concurrent requests.
type Prompts struct {
	Schema     string // Field names, types, and example formats of the collection
	Synthesis  string // Question + schema -> pipeline
	Correction string // Prior pipeline + question + error + schema -> pipeline
	Report     string // Question + result documents -> report

	MaxReportRows int // Result documents rendered into the report prompt
}

// LoadPrompts loads all prompts from the embedded filesystem and checks that
// every template carries the placeholders it is rendered with.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{MaxReportRows: DefaultMaxReportRows}

	var err error
	if p.Schema, err = loadPrompt("SCHEMA.md"); err != nil {
		return nil, fmt.Errorf("failed to load SCHEMA: %w", err)
	}
	if p.Synthesis, err = loadPrompt("SYNTHESIS.md", placeholderQuestion, placeholderSchema); err != nil {
		return nil, fmt.Errorf("failed to load SYNTHESIS: %w", err)
	}
	if p.Correction, err = loadPrompt("CORRECTION.md", placeholderPipeline, placeholderQuestion, placeholderError, placeholderSchema); err != nil {
		return nil, fmt.Errorf("failed to load CORRECTION: %w", err)
	}
	if p.Report, err = loadPrompt("REPORT.md", placeholderQuestion, placeholderData); err != nil {
		return nil, fmt.Errorf("failed to load REPORT: %w", err)
	}

	return p, nil
}

func loadPrompt(path string, required ...string) (string, error) {
	data, err := prompts.PromptsFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	for _, ph := range required {
		if !strings.Contains(text, ph) {
			return "", fmt.Errorf("%s is missing placeholder %s", path, ph)
		}
	}
	return text, nil
}

// RenderSynthesis renders the prompt asking for a pipeline that answers the
// question.
func (p *Prompts) RenderSynthesis(question, schema string) string {
	return render(p.Synthesis,
		placeholderQuestion, question,
		placeholderSchema, schema,
	)
}

// RenderCorrection renders the prompt asking for a fixed version of a
// pipeline that failed with errorMessage.
func (p *Prompts) RenderCorrection(priorPipelineText, question, errorMessage, schema string) string {
	return render(p.Correction,
		placeholderPipeline, priorPipelineText,
		placeholderQuestion, question,
		placeholderError, errorMessage,
		placeholderSchema, schema,
	)
}

// RenderReport renders the prompt asking for a natural-language report of
// the results. An empty result set still produces a prompt.
func (p *Prompts) RenderReport(question string, results ResultSet) string {
	return render(p.Report,
		placeholderQuestion, question,
		placeholderData, FormatResults(results, p.MaxReportRows),
	)
}

// render substitutes placeholders in a single pass, so values that happen to
// contain placeholder text are never expanded again.
func render(template string, oldnew ...string) string {
	return strings.NewReplacer(oldnew...).Replace(template)
}

// FormatResults renders documents as a JSON array of relaxed Extended JSON
// documents, one per line. At most maxRows documents are written.
func FormatResults(results ResultSet, maxRows int) string {
	if len(results) == 0 {
		return "[]"
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxReportRows
	}

	var sb strings.Builder
	sb.WriteString("[\n")
	shown := min(len(results), maxRows)
	for i := range shown {
		sb.WriteString("  ")
		sb.WriteString(formatDocument(results[i]))
		if i < shown-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]")
	if len(results) > maxRows {
		sb.WriteString(fmt.Sprintf("\n... and %d more documents", len(results)-maxRows))
	}
	return sb.String()
}

func formatDocument(doc bson.D) string {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(data)
}

// Package prompts holds the prompt templates and the dataset schema
// description used by the analyst pipeline.
package prompts

import "embed"

//go:embed *.md
var PromptsFS embed.FS

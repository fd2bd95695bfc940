package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
)

const fence = "```"

// Sanitize strips presentation artifacts from generated text: surrounding
// whitespace, a leading code fence (with an optional language tag such as
// "json") and a trailing code fence. Interior content is left untouched.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)

	if rest, ok := strings.CutPrefix(s, fence); ok {
		s = stripLanguageTag(rest)
	}
	if rest, ok := strings.CutSuffix(s, fence); ok {
		s = rest
	}

	return strings.TrimSpace(s)
}

// stripLanguageTag drops an info string like "json" that directly follows an
// opening fence on the same line.
func stripLanguageTag(s string) string {
	line, rest, found := strings.Cut(s, "\n")
	tag := strings.TrimSpace(line)
	if tag == "" {
		return rest
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return s
		}
	}
	if !found {
		return ""
	}
	return rest
}

// Parse interprets sanitized text as an ordered array of stage documents.
// The text is read as relaxed MongoDB Extended JSON, so values such as
// {"$date": "2016-01-01T00:00:00Z"} become native BSON types. The whole text
// must be exactly one array and every element must be a document.
func Parse(cleaned string) (Pipeline, error) {
	text := strings.TrimSpace(cleaned)
	if text == "" {
		return nil, &MalformedPipelineError{Text: cleaned, Err: errors.New("empty pipeline text")}
	}
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return nil, &MalformedPipelineError{Text: cleaned, Err: errors.New("expected a JSON array of stage objects")}
	}
	// The extended JSON decoder stops after the first complete value.
	if !json.Valid([]byte(text)) {
		return nil, &MalformedPipelineError{Text: cleaned, Err: errors.New("pipeline text is not a single valid JSON array")}
	}

	var elems []bson.RawValue
	if err := bson.UnmarshalExtJSON([]byte(text), false, &elems); err != nil {
		return nil, &MalformedPipelineError{Text: cleaned, Err: err}
	}

	p := make(Pipeline, 0, len(elems))
	for i, elem := range elems {
		if elem.Type != bson.TypeEmbeddedDocument {
			return nil, &MalformedPipelineError{Text: cleaned, Err: fmt.Errorf("stage %d is %s, expected a document", i, elem.Type)}
		}
		var stage Stage
		if err := elem.Unmarshal(&stage); err != nil {
			return nil, &MalformedPipelineError{Text: cleaned, Err: fmt.Errorf("stage %d: %w", i, err)}
		}
		if stage == nil {
			stage = Stage{}
		}
		p = append(p, stage)
	}
	return p, nil
}

// SanitizeAndParse is Sanitize followed by Parse. The sanitized text is
// returned even when parsing fails so it can be fed back for correction.
func SanitizeAndParse(raw string) (string, Pipeline, error) {
	cleaned := Sanitize(raw)
	p, err := Parse(cleaned)
	return cleaned, p, err
}

package pipeline

import "fmt"

// MalformedPipelineError means the generated text could not be interpreted as
// an ordered array of stage documents.
type MalformedPipelineError struct {
	Text string
	Err  error
}

func (e *MalformedPipelineError) Error() string {
	if e.Err == nil {
		return "malformed pipeline"
	}
	return fmt.Sprintf("malformed pipeline: %v", e.Err)
}

func (e *MalformedPipelineError) Unwrap() error {
	return e.Err
}

// ExecutionError means a well-formed pipeline was rejected by the engine.
// Message carries the engine's own text and is fed back to the generator.
type ExecutionError struct {
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// feedback returns the message folded into the correction prompt.
func feedback(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

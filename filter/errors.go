package filter

import (
	"fmt"
)

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated
	EvaluationError struct {
		Expression string
		ObjectID   string
		Err        error
	}

	// UnknownPresetError indicates a named filter that was never registered
	UnknownPresetError struct {
		Name string
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on object '%s': %v", e.Expression, e.ObjectID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("filter preset '%s' not found", e.Name)
}

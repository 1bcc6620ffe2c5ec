package operation

import (
	"errors"
	"fmt"
)

// ErrNoStepResult reports a CallFirst invocation where no step produced
// a result, including the case of zero contributing steps.
var ErrNoStepResult = errors.New("no step produced a result")

// StepExecutionError wraps a failure raised inside a single operation
// step.
type StepExecutionError struct {
	Operation string
	Step      string
	Err       error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("operation %s: step %s failed: %v", e.Operation, e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

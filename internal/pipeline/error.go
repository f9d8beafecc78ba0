// Package pipeline drives the stage state machine: deciding what to run,
// checking prerequisites, delegating to the external collaborators, and
// surfacing failures without losing work already on disk.

package pipeline

import (
	"fmt"

	"github.com/bibolabs/vidforge/internal/stage"
)

// StageError wraps a collaborator failure with the stage it happened in.
// Collaborator errors never cross the runner boundary raw.
type StageError struct {
	Stage   stage.ID
	Message string
	Err     error
}

// Error renders the stage label, message, and underlying cause.
func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying collaborator error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageErr(id stage.ID, message string, err error) *StageError {
	return &StageError{Stage: id, Message: message, Err: err}
}

func stageErrf(id stage.ID, err error, format string, args ...any) *StageError {
	return &StageError{Stage: id, Message: fmt.Sprintf(format, args...), Err: err}
}

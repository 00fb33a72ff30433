package action

import (
	"errors"
	"fmt"
)

// ErrOverwriteRefused is returned when the overwrite policy declines to
// replace existing files.
var ErrOverwriteRefused = errors.New("overwrite refused")

// ExecutionError reports the action a run stopped at.
type ExecutionError struct {
	// Index is the position of the failing action in the run.
	Index     int
	Action    Action
	Uninstall bool
	Err       error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	verb := "install"
	if e.Uninstall {
		verb = "uninstall"
	}
	return fmt.Sprintf("%s action %d (%s): %v", verb, e.Index, e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsOverwriteRefused returns true if err stems from a refused overwrite.
func IsOverwriteRefused(err error) bool {
	return errors.Is(err, ErrOverwriteRefused)
}

package cli

import (
	"github.com/pkg/errors"

	"github.com/aanand-mishra/students/internal/storage"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1 // connectivity, constraint and other store errors
	ExitUsage    = 2 // bad arguments; the store was not contacted
	ExitNotFound = 3 // no row matched the given id
)

// Error carries the exit code a failed command should end the process
// with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &Error{Code: ExitUsage, Err: err}
}

func notFoundError(format string, args ...interface{}) error {
	return &Error{Code: ExitNotFound, Err: errors.Wrapf(storage.ErrNotFound, format, args...)}
}

// storeError classifies an error returned by the store.
func storeError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &Error{Code: ExitNotFound, Err: err}
	}
	return &Error{Code: ExitFailure, Err: errors.WithMessage(err, msg)}
}

// ExitCode maps an error from the command tree to a process exit code.
// Errors that did not come from a command's RunE are cobra's own argument
// and flag errors, so they count as usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ExitUsage
}

package types

import "strings"

// Exit codes returned by the CLI.
const (
	ExitCodeOK      = 0
	ExitCodeFailure = 1
	ExitCodeUsage   = 2
)

// ExitError represents an error with an associated exit code for CLI commands.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error that occurred during argument validation.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation error"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "validation errors:"
	for _, err := range e.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// ImportError is a failed import of a single template file.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ImportErrors collects per-file failures in the order they happened.
type ImportErrors []*ImportError

// Add records a failure for path.
func (ie *ImportErrors) Add(path string, err error) {
	*ie = append(*ie, &ImportError{Path: path, Err: err})
}

func (ie ImportErrors) Error() string {
	lines := make([]string, 0, len(ie))
	for _, e := range ie {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

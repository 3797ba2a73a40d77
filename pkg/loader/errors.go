// Package loader finds template files on disk and reads them for submission.
package loader

import (
	"errors"
)

// ErrNotFileOrDir is returned when a template path is neither a regular file nor a directory.
var ErrNotFileOrDir = errors.New("not a file or directory")

// PathError records the path that could not be used.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

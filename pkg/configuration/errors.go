package configuration

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrInvalidArgument is returned when a source is constructed with invalid
// arguments, such as an empty secret name.
var ErrInvalidArgument = errors.New("invalid argument")

// FileNotFoundError is returned by Build when a required source could not be
// found. It matches fs.ErrNotExist with errors.Is.
type FileNotFoundError struct {
	// Path is the name the source asked its file provider for.
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("configuration file %q was not found and is not optional", e.Path)
}

// Is reports whether target is fs.ErrNotExist.
func (e *FileNotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// ParseError is returned when a source's content could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse configuration file %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package database

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrEntityNotFound matches any *EntityNotFoundError.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrInvalidArgument is returned for blank or non-UTF-8 names, relation
	// fields, observations or unknown options.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed is returned by every Store call after Close.
	ErrClosed = errors.New("store is closed")
)

// EntityNotFoundError names the entity an operation required but could not find.
type EntityNotFoundError struct {
	Name string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity not found: %q", e.Name)
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// checkUTF8 rejects values that JSON encoding would rewrite on save.
func checkUTF8(what string, i int, values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) {
			return invalidArgument("%s at index %d contains invalid UTF-8", what, i)
		}
	}
	return nil
}

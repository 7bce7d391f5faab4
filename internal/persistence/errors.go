package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceWrite matches any *PersistenceWriteError.
	ErrPersistenceWrite = errors.New("persistence: write failed")

	// ErrPersistenceRead matches any *PersistenceReadError.
	ErrPersistenceRead = errors.New("persistence: read failed")
)

// PersistenceWriteError is returned when the graph file could not be
// replaced. The caller's in-memory state is not rolled back.
type PersistenceWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

func (e *PersistenceWriteError) Is(target error) bool { return target == ErrPersistenceWrite }

// PersistenceReadError is returned when the graph file exists but cannot be
// opened or read. Malformed lines are not read errors; they are skipped.
type PersistenceReadError struct {
	Path string
	Err  error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *PersistenceReadError) Unwrap() error { return e.Err }

func (e *PersistenceReadError) Is(target error) bool { return target == ErrPersistenceRead }

package replayable

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is returned by any operation attempted after the owning
	// Sequence has been disposed.
	ErrDisposed = errors.New("replayable: sequence disposed")

	// ErrInvalidCursor is returned by Current when the most recent Advance
	// did not succeed, and by any use of a closed cursor.
	ErrInvalidCursor = errors.New("replayable: cursor has no current item")

	// ErrResetUnsupported is returned by Cursor.Reset. Rewinding a cursor is
	// deliberately unsupported; replay is achieved by creating a new cursor
	// on the same Sequence.
	ErrResetUnsupported = errors.New("replayable: cursor reset is not supported")
)

// SourceError records a failure of the underlying source. It is captured
// exactly once, at the position it occurred, and the same value is returned
// to every cursor that reaches that position. An Index of -1 means the
// source failed to open; a non-negative Index is the item position whose
// production failed.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("replayable: source failed to open: %v", e.Err)
	}
	return fmt.Sprintf("replayable: source failed at index %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

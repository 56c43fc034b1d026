package buffer

import "errors"

var (
	// ErrCapacityExceeded indicates a write doesn't fit in the remaining space.
	ErrCapacityExceeded = errors.New("buffer: capacity exceeded")
	// ErrTruncated is returned by greedy writes which only stored a prefix.
	// It matches ErrCapacityExceeded with errors.Is.
	ErrTruncated = &truncatedError{}
	// ErrInvalidIndex indicates an insert position beyond the used length.
	ErrInvalidIndex = errors.New("buffer: invalid index")
)

type truncatedError struct{}

// Error implements error.
func (e *truncatedError) Error() string {
	return "buffer: truncated"
}

// Is reports truncation as a kind of capacity overflow.
func (e *truncatedError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

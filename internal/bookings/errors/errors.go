package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStaleState means the booking exists but no longer holds the status
	// pair a conditional write expected.
	ErrStaleState = errors.New("booking state changed concurrently")

	ErrAlreadyReviewed = errors.New("booking already reviewed")
)

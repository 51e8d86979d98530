package errors

import "errors"

var (
	ErrNotFound = errors.New("message not found")
)

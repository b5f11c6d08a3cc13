package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed upload or identifier.
	ErrInvalidInput = errors.New("invalid input")
)

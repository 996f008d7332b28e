package models

import "errors"

// Validation errors, rejected before any retrieval work is done.
var (
	// ErrEmptyQuery indicates an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidMode indicates an unrecognized search mode.
	ErrInvalidMode = errors.New("invalid search mode")
)

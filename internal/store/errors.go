package store

import "errors"

var (
	// ErrNotFound indicates no record matched the given identifier.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a uniqueness invariant would be violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidID indicates a malformed identifier.
	ErrInvalidID = errors.New("invalid id format")
)

package service

import "errors"

// Sentinel errors the handler layer maps onto HTTP statuses.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user does not own the record.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)

package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates the operation needs a signed-in user.
	ErrUnauthenticated = errors.New("unauthenticated")
)

package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique-constraint violations (email,
	// transaction uuid).
	ErrDuplicate = errors.New("duplicate record")
)

package domain

import "errors"

var (
	// ErrNotFound is returned when the requested metric does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a user already has a metric for the given date.
	ErrConflict = errors.New("metric for date already exists")
	// ErrInvalidArgument reports a missing or malformed required input.
	ErrInvalidArgument = errors.New("invalid argument")
)

package workflow

import "errors"

// ErrInvalidInput is returned when a required field is missing from an
// operation. Nothing is mutated when it is returned.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnexpectedState is a logic fault: an operation observed a persisted
// state it could not have produced after acquiring the per-entity section.
// It is logged and the operation aborts without partial writes; it is never
// surfaced to API callers as anything but a 500.
var ErrUnexpectedState = errors.New("unexpected workflow state")

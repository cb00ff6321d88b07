package service

import "errors"

var (
	// ErrNotStarted is returned when an operation is attempted before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrValidation is returned when a submission fails input validation.
	// No state changes when this is returned.
	ErrValidation = errors.New("invalid play submission")

	// ErrAggregation is returned when the aggregate update fails after the
	// play history row was already committed.
	ErrAggregation = errors.New("aggregate update failed")
)

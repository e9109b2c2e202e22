package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrOutcomeAlreadySet = errors.New("outcome already set")
	ErrInvalidOutcome    = errors.New("invalid outcome")
	ErrStatusConflict    = errors.New("experiment status conflict")
	ErrCounterRegression = errors.New("variant counters decreased")
)

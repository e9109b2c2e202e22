package queue

import "errors"

// Sentinel kinds for outbox errors.
var (
	ErrAlreadyClosed = errors.New("outbox already closed")
)

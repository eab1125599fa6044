package docqueue

import "errors"

var (
	// ErrUnknownProvider is returned when a submission names a provider that
	// is not part of the catalog. Nothing is enqueued.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidSubmission is returned when a submission fails validation, for
	// example a negative user ID or a zero timestamp.
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrConfiguration is returned when a catalog is malformed: unknown or
	// cyclic prerequisites, duplicate names and similar.
	ErrConfiguration = errors.New("invalid catalog configuration")

	// ErrEmptyQueue is returned by Dequeue and Peek when nothing is pending.
	ErrEmptyQueue = errors.New("queue is empty")
)

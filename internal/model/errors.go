package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned for events whose end is not after their start.
	ErrInvalidInterval = errors.New("invalid interval: end_time must be after start_time")
	// ErrUnknownRecurrenceType marks a recurring event whose rule is not
	// daily, weekly or monthly. Only its base occurrence is considered.
	ErrUnknownRecurrenceType = errors.New("unknown recurrence type")
	// ErrMalformedEvent is returned for records with a missing or mistyped required
	// field, or a timestamp outside ±MaxAbsUnix.
	ErrMalformedEvent = errors.New("malformed event")
)

// EventError ties a validation failure to the event that caused it.
// Index is the position of the event in its input batch.
type EventError struct {
	Index int
	ID    string
	Err   error
}

func (e *EventError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("event #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("event %q (#%d): %v", e.ID, e.Index, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

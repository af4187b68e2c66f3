package domain

import (
	"errors"
	"fmt"
)

// ErrStepNotFound is returned when a step ID cannot be found.
var ErrStepNotFound = errors.New("step not found")

// ErrProductNotFound is returned when a product ID cannot be found.
var ErrProductNotFound = errors.New("product not found")

// ErrButtonNotFound is returned when a button ID does not exist on the
// current step.
var ErrButtonNotFound = errors.New("button not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the
// session store.
var ErrSessionNotFound = errors.New("session not found")

// ErrKeyNotFound is returned by storage adapters for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// ErrQuotaExceeded is returned by storage adapters when a write is rejected
// for capacity reasons. The persist queue treats it as a per-key failure:
// the write is logged and dropped, other keys still flush.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// MissingStepError marks a traversal dead end: a button pointed at a step
// that was deleted (or never existed) after being linked to. Callers
// convert it into a non-fatal "script data unavailable" state instead of
// crashing the session.
type MissingStepError struct {
	StepID string
}

func (e *MissingStepError) Error() string {
	return fmt.Sprintf("step %q is missing or was deleted", e.StepID)
}

func (e *MissingStepError) Unwrap() error {
	return ErrStepNotFound
}

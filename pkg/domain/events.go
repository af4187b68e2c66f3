package domain

import "time"

// ChangeKind discriminates what category of data changed, so consumers can
// selectively re-fetch instead of reloading everything on every event.
type ChangeKind string

const (
	ChangeStep       ChangeKind = "step"
	ChangeProduct    ChangeKind = "product"
	ChangeAnnotation ChangeKind = "annotation"
	ChangeImport     ChangeKind = "import"
)

// ChangeEvent is the broadcast payload published after a mutation settles.
// It signals "something of this kind changed"; it carries no data payload,
// so a consumer must re-read from the repository rather than trust the
// event for ordering.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	ID        string     `json:"id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

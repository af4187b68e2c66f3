package repository

import "github.com/aretw0/roteiro/pkg/domain"

// cloneStep deep-copies a step so callers can never mutate the repository's
// in-memory state through an aliased pointer.
func cloneStep(s *domain.Step) *domain.Step {
	if s == nil {
		return nil
	}
	next := *s
	next.Buttons = append([]domain.Button(nil), s.Buttons...)
	if s.Segments != nil {
		next.Segments = append([]domain.ContentSegment(nil), s.Segments...)
	}
	if s.Tabulations != nil {
		next.Tabulations = append([]domain.Tabulation(nil), s.Tabulations...)
	}
	if s.Alert != nil {
		alert := *s.Alert
		next.Alert = &alert
	}
	if s.Formatting != nil {
		f := *s.Formatting
		next.Formatting = &f
	}
	return &next
}

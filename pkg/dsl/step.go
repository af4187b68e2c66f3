package dsl

import (
	"fmt"

	"github.com/aretw0/roteiro/pkg/domain"
)

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Title sets the step's title.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.step.Title = title
	return s
}

// Content sets the step's script text.
func (s *StepBuilder) Content(content string) *StepBuilder {
	s.step.Content = content
	return s
}

// Button adds a transition to the target step.
func (s *StepBuilder) Button(label, target string) *StepBuilder {
	s.addButton(label, target, false)
	return s
}

// Primary adds a highlighted transition to the target step.
func (s *StepBuilder) Primary(label, target string) *StepBuilder {
	s.addButton(label, target, true)
	return s
}

// End adds a call-closing button.
func (s *StepBuilder) End(label string) *StepBuilder {
	s.addButton(label, "", false)
	return s
}

func (s *StepBuilder) addButton(label, target string, primary bool) {
	s.step.Buttons = append(s.step.Buttons, domain.Button{
		ID:         fmt.Sprintf("%s-b%d", s.step.ID, len(s.step.Buttons)+1),
		Label:      label,
		NextStepID: target,
		OrderIndex: len(s.step.Buttons),
		Primary:    primary,
	})
}

// Alert attaches a warning banner shown alongside the step.
func (s *StepBuilder) Alert(title, message string) *StepBuilder {
	s.step.Alert = &domain.Alert{Title: title, Message: message}
	return s
}

// Tabulate suggests tabulation codes for calls that end on this step.
func (s *StepBuilder) Tabulate(names ...string) *StepBuilder {
	for _, name := range names {
		s.step.Tabulations = append(s.step.Tabulations, domain.Tabulation{Name: name})
	}
	return s
}

// Step delegates back to the script builder, so chains can keep
// declaring steps without a local variable per step.
func (s *StepBuilder) Step(id string) *StepBuilder {
	return s.builder.Step(id)
}

// Build returns the underlying domain.Step. This is primarily used by
// the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	return s.step
}

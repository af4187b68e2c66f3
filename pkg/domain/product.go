package domain

// Product is a named script an operator selects to start a call.
type Product struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Active   bool   `json:"active" yaml:"active"`

	// FirstStepID is where navigation starts for this product.
	FirstStepID string `json:"first_step_id" yaml:"first_step_id"`

	// Discovery tags. Never consulted during traversal.
	AttendanceType string `json:"attendance_type,omitempty" yaml:"attendance_type,omitempty"`
	PersonType     string `json:"person_type,omitempty" yaml:"person_type,omitempty"`
}

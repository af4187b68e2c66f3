package domain

// NavigationState is the session-scoped snapshot of an operator's position
// in a script. It is created when the operator opens a product and deleted
// when they return to the product list.
type NavigationState struct {
	SessionID string `json:"session_id,omitempty"`
	ProductID string `json:"product_id"`

	// CurrentStepID is empty once the Terminal state is reached.
	CurrentStepID string `json:"current_step_id"`

	// BackStack is the ordered history of previously visited steps.
	// Growth is bounded only by actual clicks during one call, unless the
	// controller is configured with a history limit.
	BackStack []string `json:"back_stack"`

	// Terminal marks the call-closing state. History is preserved so a
	// subsequent back still works.
	Terminal bool `json:"terminal"`
}

// NewNavigationState creates a clean state positioned at startStepID.
func NewNavigationState(productID, startStepID string) *NavigationState {
	return &NavigationState{
		ProductID:     productID,
		CurrentStepID: startStepID,
		BackStack:     []string{},
	}
}

// CanGoBack reports whether the back-stack has an entry to pop.
func (s *NavigationState) CanGoBack() bool {
	return len(s.BackStack) > 0
}

// Clone returns a copy with an independent back-stack, so callers can
// mutate the result without aliasing the original.
func (s *NavigationState) Clone() *NavigationState {
	if s == nil {
		return nil
	}
	next := *s
	next.BackStack = make([]string, len(s.BackStack))
	copy(next.BackStack, s.BackStack)
	return &next
}

package domain

import "time"

// DefaultAlertTitle is used when a stored alert carries a message but no
// title. Older editors saved alerts with either field missing.
const DefaultAlertTitle = "Atenção"

// Alert is an advisory banner attached to a Step.
type Alert struct {
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Active reports whether the alert should be surfaced. A non-empty message
// is the sole activation condition; a title alone does not alert.
func (a *Alert) Active() bool {
	return a != nil && a.Message != ""
}

// EffectiveTitle returns the title, falling back to DefaultAlertTitle for
// previously-saved alerts missing one.
func (a *Alert) EffectiveTitle() string {
	if a == nil || a.Title == "" {
		return DefaultAlertTitle
	}
	return a.Title
}

// Tabulation is an advisory call-closing-code recommendation attached to a
// Step. Purely informational; it never influences transitions.
type Tabulation struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

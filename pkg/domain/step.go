package domain

// Step is one screen of a script: a node in the traversal graph.
type Step struct {
	// ID is unique and stable across edits. Buttons reference it.
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Content is plain text with embedded placeholder tokens and
	// literal newlines. Rendering happens in pkg/render.
	Content string `json:"content" yaml:"content"`

	// Buttons are the labeled transitions out of this step, in display order.
	Buttons []Button `json:"buttons" yaml:"buttons"`

	// Segments are optional styled sub-ranges of Content, matched by text.
	Segments []ContentSegment `json:"segments,omitempty" yaml:"segments,omitempty"`

	// Annotations. Neither influences transitions.
	Tabulations []Tabulation `json:"tabulations,omitempty" yaml:"tabulations,omitempty"`
	Alert       *Alert       `json:"alert,omitempty" yaml:"alert,omitempty"`

	// Formatting applies to the whole step's content unless a segment
	// overrides it.
	Formatting *Formatting `json:"formatting,omitempty" yaml:"formatting,omitempty"`

	// ProductID is empty for standalone steps.
	ProductID string `json:"product_id,omitempty" yaml:"product_id,omitempty"`

	// OrderIndex controls admin listing only, never traversal order.
	OrderIndex int `json:"order_index" yaml:"order_index"`
}

// Button labels a transition out of a Step.
// Referential integrity of NextStepID is NOT enforced at write time; a
// dangling target surfaces as a MissingStepError at traversal time.
type Button struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`

	// NextStepID empty means "end of script" (Terminal).
	NextStepID string `json:"next_step_id,omitempty" yaml:"next_step_id,omitempty"`

	OrderIndex int `json:"order_index" yaml:"order_index"`

	// Primary is visual emphasis only.
	Primary bool `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Terminal reports whether clicking this button ends the script.
func (b Button) Terminal() bool {
	return b.NextStepID == ""
}

// ContentSegment is a styled sub-range of a Step's content, identified by
// its exact text rather than by offset. Segments are matched against the
// content left to right with an advancing cursor; a duplicate substring is
// matched only once, in segment list order.
type ContentSegment struct {
	ID         string     `json:"id" yaml:"id"`
	Text       string     `json:"text" yaml:"text"`
	Formatting Formatting `json:"formatting" yaml:"formatting"`
}

// Formatting is the style record shared by steps and segments.
// Zero value means "inherit / unstyled".
type Formatting struct {
	Bold       bool   `json:"bold,omitempty" yaml:"bold,omitempty" mapstructure:"bold"`
	Italic     bool   `json:"italic,omitempty" yaml:"italic,omitempty" mapstructure:"italic"`
	Color      string `json:"color,omitempty" yaml:"color,omitempty" mapstructure:"color"`
	Background string `json:"background,omitempty" yaml:"background,omitempty" mapstructure:"background"`

	// Size is a relative token (sm|base|lg|xl|2xl|3xl), scaled against a
	// caller-supplied base pixel size at render time.
	Size string `json:"size,omitempty" yaml:"size,omitempty" mapstructure:"size"`

	Alignment  string `json:"alignment,omitempty" yaml:"alignment,omitempty" mapstructure:"alignment"`
	FontFamily string `json:"font_family,omitempty" yaml:"font_family,omitempty" mapstructure:"font_family"`
	ListType   string `json:"list_type,omitempty" yaml:"list_type,omitempty" mapstructure:"list_type"`
	Shadow     bool   `json:"shadow,omitempty" yaml:"shadow,omitempty" mapstructure:"shadow"`
}

// ButtonByID returns the button with the given id, or false.
func (s *Step) ButtonByID(id string) (Button, bool) {
	for _, b := range s.Buttons {
		if b.ID == id {
			return b, true
		}
	}
	return Button{}, false
}

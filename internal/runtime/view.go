package runtime

import (
	"github.com/aretw0/roteiro/internal/metrics"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/render"
)

// StepView is everything a UI needs to show one step: rendered content
// nodes, transition buttons, and the step's annotations.
type StepView struct {
	Step        *domain.Step        `json:"step,omitempty"`
	Nodes       []render.Node       `json:"nodes"`
	Buttons     []domain.Button     `json:"buttons"`
	AlertTitle  string              `json:"alert_title,omitempty"`
	AlertText   string              `json:"alert_text,omitempty"`
	Tabulations []domain.Tabulation `json:"tabulations,omitempty"`
	Terminal    bool                `json:"terminal"`
	CanGoBack   bool                `json:"can_go_back"`
}

// View resolves the state's current step and renders it. A Terminal state
// yields a view with no step and Terminal set; a missing step propagates
// the MissingStepError for the caller's dead-end handling.
func (n *Navigator) View(state *domain.NavigationState, ph render.Placeholders) (*StepView, error) {
	if state == nil {
		return nil, &domain.MissingStepError{}
	}
	if state.Terminal {
		return &StepView{Terminal: true, CanGoBack: state.CanGoBack()}, nil
	}

	step, err := n.Resolve(state.CurrentStepID)
	if err != nil {
		return nil, err
	}

	view := &StepView{
		Step:        step,
		Nodes:       render.Render(step.Content, step.Segments, ph),
		Buttons:     step.Buttons,
		Tabulations: step.Tabulations,
		CanGoBack:   state.CanGoBack(),
	}
	if step.Alert.Active() {
		view.AlertTitle = step.Alert.EffectiveTitle()
		view.AlertText = step.Alert.Message
	}
	metrics.RendersTotal.Inc()
	return view, nil
}

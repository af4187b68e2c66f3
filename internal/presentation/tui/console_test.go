package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/render"
)

func stepView() *runtime.StepView {
	return &runtime.StepView{
		Step: &domain.Step{ID: "oferta", Title: "Oferta"},
		Nodes: []render.Node{
			{Kind: render.NodeText, Text: "Apresente o plano."},
		},
		Buttons: []domain.Button{
			{ID: "oferta-b1", Label: "Aceitou", Primary: true},
			{ID: "oferta-b2", Label: "Recusou", NextStepID: "retencao"},
		},
		Tabulations: []domain.Tabulation{{Name: "Venda"}, {Name: "Recusa"}},
		AlertTitle:  "Atenção",
		AlertText:   "Oferta válida só hoje.",
		CanGoBack:   true,
	}
}

func TestConsole_RenderView_Plain(t *testing.T) {
	c := NewPlainConsole()
	out := c.RenderView(stepView(), true)

	assert.Contains(t, out, "Oferta")
	assert.Contains(t, out, "Atenção: Oferta válida só hoje.")
	assert.Contains(t, out, "Apresente o plano.")
	assert.Contains(t, out, "(1) Aceitou (encerra)")
	assert.Contains(t, out, "(2) Recusou")
	assert.Contains(t, out, "Tabulações sugeridas: Venda, Recusa")
	assert.Contains(t, out, "(b) voltar")
	// Plain profile emits no escape sequences even when pulsing.
	assert.NotContains(t, out, "\x1b[")
}

func TestConsole_RenderView_Terminal(t *testing.T) {
	c := NewPlainConsole()
	out := c.RenderView(&runtime.StepView{Terminal: true, CanGoBack: true}, false)

	assert.Contains(t, out, "Fim do roteiro.")
	assert.Contains(t, out, "(b) voltar")
}

func TestConsole_PulseTabulations_PlainIsNoop(t *testing.T) {
	c := NewPlainConsole()
	stop := c.PulseTabulations(stepView())
	stop() // must be safe to call
}

package dsl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/dsl"
	"github.com/aretw0/roteiro/pkg/repository"
)

func TestBuilder_Build(t *testing.T) {
	script := dsl.New("acme-fibra").Name("ACME Fibra").Category("internet")

	script.Step("saudacao").
		Title("Saudação").
		Content("Olá [Primeiro nome do cliente]!").
		Primary("Cliente confirmou", "oferta").
		End("Cliente recusou")

	script.Step("oferta").
		Title("Oferta").
		Content("Apresente o plano.").
		Alert("Atenção", "Não prometa prazos de instalação.").
		Tabulate("Venda", "Recusa").
		End("Encerrar")

	product, steps, err := script.Build()
	require.NoError(t, err)

	assert.Equal(t, "ACME Fibra", product.Name)
	assert.Equal(t, "saudacao", product.FirstStepID)
	require.Len(t, steps, 2)

	first := steps[0]
	require.Len(t, first.Buttons, 2)
	assert.Equal(t, "saudacao-b1", first.Buttons[0].ID)
	assert.True(t, first.Buttons[0].Primary)
	assert.Equal(t, "oferta", first.Buttons[0].NextStepID)
	assert.Empty(t, first.Buttons[1].NextStepID)

	offer := steps[1]
	assert.True(t, offer.Alert.Active())
	assert.Len(t, offer.Tabulations, 2)
}

func TestBuilder_RejectsUndefinedTarget(t *testing.T) {
	script := dsl.New("p1")
	script.Step("a").Title("A").Button("Go", "ghost")

	_, _, err := script.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestBuilder_RejectsMissingTitle(t *testing.T) {
	script := dsl.New("p1")
	script.Step("a").Content("no title")

	_, _, err := script.Build()
	assert.ErrorContains(t, err, "no title")
}

func TestBuilder_EmptyScript(t *testing.T) {
	_, _, err := dsl.New("p1").Build()
	assert.Error(t, err)
}

func TestBuilder_FeedsRepository(t *testing.T) {
	script := dsl.New("suporte")
	script.Step("inicio").Title("Início").End("Encerrar").
		Step("extra").Title("Extra").End("Encerrar")

	product, steps, err := script.Build()
	require.NoError(t, err)

	repo, err := repository.New(context.Background(), memory.NewStorage(), nil)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.ReplaceProductSteps(product, steps))

	nav := runtime.NewNavigator(repo)
	state, err := nav.Start("suporte")
	require.NoError(t, err)
	assert.Equal(t, "inicio", state.CurrentStepID)
}

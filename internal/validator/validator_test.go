package validator_test

import (
	"context"
	"testing"

	"github.com/aretw0/roteiro/internal/validator"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRepo(t *testing.T, firstStepID string, steps ...*domain.Step) *repository.Repository {
	t.Helper()
	repo, err := repository.New(context.Background(), memory.NewStorage(), nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	require.NoError(t, repo.CreateProduct(&domain.Product{
		ID: "acme", Name: "ACME", Active: true, FirstStepID: firstStepID,
	}))
	for _, s := range steps {
		s.ProductID = "acme"
		require.NoError(t, repo.CreateStep(s))
	}
	return repo
}

func linked(id, next string) *domain.Step {
	s := &domain.Step{ID: id, Title: "Step " + id, Content: "x"}
	if next != "" {
		s.Buttons = []domain.Button{{ID: id + "-b1", Label: "Next", NextStepID: next}}
	} else {
		s.Buttons = []domain.Button{{ID: id + "-b1", Label: "End"}}
	}
	return s
}

func TestValidateProduct_Clean(t *testing.T) {
	repo := buildRepo(t, "s1", linked("s1", "s2"), linked("s2", ""))

	result, err := validator.ValidateProduct(repo, "acme")
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, 2, result.Steps)
}

func TestValidateProduct_CyclesAreClean(t *testing.T) {
	repo := buildRepo(t, "s1", linked("s1", "s2"), linked("s2", "s1"))

	result, err := validator.ValidateProduct(repo, "acme")
	require.NoError(t, err)
	assert.True(t, result.OK(), "loops are legitimate script design")
}

func TestValidateProduct_DanglingTarget(t *testing.T) {
	repo := buildRepo(t, "s1", linked("s1", "nowhere"))

	result, err := validator.ValidateProduct(repo, "acme")
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "nowhere", result.Issues[0].StepID)
}

func TestValidateProduct_UnreachableStep(t *testing.T) {
	repo := buildRepo(t, "s1", linked("s1", ""), linked("island", ""))

	result, err := validator.ValidateProduct(repo, "acme")
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "island", result.Issues[0].StepID)
	assert.Contains(t, result.Issues[0].Message, "unreachable")
}

func TestValidateProduct_NoFirstStep(t *testing.T) {
	repo := buildRepo(t, "", linked("s1", ""))

	result, err := validator.ValidateProduct(repo, "acme")
	require.NoError(t, err)
	assert.False(t, result.OK())
}

func TestValidateProduct_UnknownProduct(t *testing.T) {
	repo := buildRepo(t, "s1", linked("s1", ""))

	_, err := validator.ValidateProduct(repo, "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

package repository_test

import (
	"context"
	"testing"

	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/persist"
	"github.com/aretw0/roteiro/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, storage *memory.Storage) *repository.Repository {
	t.Helper()
	repo, err := repository.New(context.Background(), storage, nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func step(id, productID string, order int) *domain.Step {
	return &domain.Step{ID: id, Title: "Step " + id, Content: "body", ProductID: productID, OrderIndex: order}
}

func TestRepository_StepCRUD(t *testing.T) {
	repo := newRepo(t, memory.NewStorage())

	require.NoError(t, repo.CreateStep(step("s1", "p1", 0)))

	t.Run("Duplicate Create Fails", func(t *testing.T) {
		assert.Error(t, repo.CreateStep(step("s1", "p1", 0)))
	})

	t.Run("Get Returns Copy", func(t *testing.T) {
		got, err := repo.GetStep("s1")
		require.NoError(t, err)
		got.Title = "mutated"

		again, err := repo.GetStep("s1")
		require.NoError(t, err)
		assert.Equal(t, "Step s1", again.Title)
	})

	t.Run("Update Missing Fails", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateStep(step("ghost", "p1", 0)), domain.ErrStepNotFound)
	})

	t.Run("Delete Then Get", func(t *testing.T) {
		require.NoError(t, repo.CreateStep(step("s2", "p1", 1)))
		require.NoError(t, repo.DeleteStep("s2"))
		_, err := repo.GetStep("s2")
		assert.ErrorIs(t, err, domain.ErrStepNotFound)
		assert.ErrorIs(t, repo.DeleteStep("s2"), domain.ErrStepNotFound)
	})
}

func TestRepository_DanglingButtonsTolerated(t *testing.T) {
	repo := newRepo(t, memory.NewStorage())

	s := step("s1", "p1", 0)
	s.Buttons = []domain.Button{{ID: "b1", Label: "Go", NextStepID: "nowhere"}}
	assert.NoError(t, repo.CreateStep(s), "button targets are not validated at write time")

	require.NoError(t, repo.CreateStep(step("s2", "p1", 1)))
	assert.NoError(t, repo.DeleteStep("s2"), "deleting a referenced step is allowed")
}

func TestRepository_GetSteps(t *testing.T) {
	repo := newRepo(t, memory.NewStorage())

	require.NoError(t, repo.CreateStep(step("b", "p1", 1)))
	require.NoError(t, repo.CreateStep(step("a", "p1", 1)))
	require.NoError(t, repo.CreateStep(step("c", "p1", 0)))
	require.NoError(t, repo.CreateStep(step("z", "p2", 0)))
	require.NoError(t, repo.CreateStep(step("lone", "", 0)))

	t.Run("Ordered By OrderIndex Then ID", func(t *testing.T) {
		got := repo.GetSteps("p1")
		require.Len(t, got, 3)
		assert.Equal(t, "c", got[0].ID)
		assert.Equal(t, "a", got[1].ID)
		assert.Equal(t, "b", got[2].ID)
	})

	t.Run("Empty ProductID Returns All", func(t *testing.T) {
		assert.Len(t, repo.GetSteps(""), 5)
	})

	t.Run("Cache Invalidated On Move", func(t *testing.T) {
		repo.GetSteps("p1")
		repo.GetSteps("p2")

		moved := step("a", "p2", 5)
		require.NoError(t, repo.UpdateStep(moved))

		assert.Len(t, repo.GetSteps("p1"), 2, "old product bucket sees the removal")
		p2 := repo.GetSteps("p2")
		require.Len(t, p2, 2, "new product bucket sees the addition")
		assert.Equal(t, "a", p2[1].ID)
	})

	t.Run("Cache Invalidated On Delete", func(t *testing.T) {
		repo.GetSteps("p1")
		require.NoError(t, repo.DeleteStep("b"))
		assert.Len(t, repo.GetSteps("p1"), 1)
	})
}

func TestRepository_Annotations(t *testing.T) {
	repo := newRepo(t, memory.NewStorage())
	require.NoError(t, repo.CreateStep(step("s1", "p1", 0)))

	t.Run("Set And Clear Alert", func(t *testing.T) {
		require.NoError(t, repo.SetAlert("s1", &domain.Alert{Message: "careful"}))
		got, err := repo.GetStep("s1")
		require.NoError(t, err)
		require.True(t, got.Alert.Active())
		assert.False(t, got.Alert.CreatedAt.IsZero())

		// Saving an alert without a message clears it.
		require.NoError(t, repo.SetAlert("s1", &domain.Alert{Title: "only a title"}))
		got, err = repo.GetStep("s1")
		require.NoError(t, err)
		assert.Nil(t, got.Alert)
	})

	t.Run("Set Tabulations", func(t *testing.T) {
		tabs := []domain.Tabulation{{Name: "Resolved"}, {Name: "Escalated"}}
		require.NoError(t, repo.SetTabulations("s1", tabs))
		got, err := repo.GetStep("s1")
		require.NoError(t, err)
		assert.Equal(t, tabs, got.Tabulations)
	})

	t.Run("Missing Step", func(t *testing.T) {
		assert.ErrorIs(t, repo.SetAlert("ghost", &domain.Alert{Message: "x"}), domain.ErrStepNotFound)
		assert.ErrorIs(t, repo.SetTabulations("ghost", nil), domain.ErrStepNotFound)
	})
}

func TestRepository_ProductCRUD(t *testing.T) {
	repo := newRepo(t, memory.NewStorage())

	require.NoError(t, repo.CreateProduct(&domain.Product{ID: "p1", Name: "Beta", Active: true, FirstStepID: "s1"}))
	require.NoError(t, repo.CreateProduct(&domain.Product{ID: "p2", Name: "Alpha", Active: true}))

	t.Run("Sorted By Name", func(t *testing.T) {
		got := repo.GetProducts()
		require.Len(t, got, 2)
		assert.Equal(t, "Alpha", got[0].Name)
		assert.Equal(t, "Beta", got[1].Name)
	})

	t.Run("Delete Keeps Orphan Steps", func(t *testing.T) {
		require.NoError(t, repo.CreateStep(step("s1", "p1", 0)))
		require.NoError(t, repo.DeleteProduct("p1"))

		_, err := repo.GetProduct("p1")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		_, err = repo.GetStep("s1")
		assert.NoError(t, err, "product deletion does not cascade to steps")
	})
}

func TestRepository_HydrateRoundTrip(t *testing.T) {
	storage := memory.NewStorage()
	ctx := context.Background()

	repo := newRepo(t, storage)
	s := step("s1", "p1", 0)
	s.Segments = []domain.ContentSegment{{ID: "seg-1", Text: "body", Formatting: domain.Formatting{Bold: true}}}
	require.NoError(t, repo.CreateStep(s))
	require.NoError(t, repo.CreateProduct(&domain.Product{ID: "p1", Name: "P1", Active: true, FirstStepID: "s1"}))
	repo.Flush(ctx)

	// A second repository over the same storage sees the same data.
	reborn := newRepo(t, storage)
	got, err := reborn.GetStep("s1")
	require.NoError(t, err)
	assert.Equal(t, s.Segments, got.Segments)

	p, err := reborn.GetProduct("p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", p.FirstStepID)
}

func TestRepository_HydrateSkipsCorruptRecords(t *testing.T) {
	storage := memory.NewStorage()
	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, "step:bad", []byte("{not json")))
	require.NoError(t, storage.Save(ctx, "step:good", []byte(`{"id":"good","title":"Good","content":"x"}`)))

	repo := newRepo(t, storage)
	_, err := repo.GetStep("good")
	assert.NoError(t, err)
	_, err = repo.GetStep("bad")
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestRepository_ChangeEvents(t *testing.T) {
	storage := memory.NewStorage()
	bus := persist.NewBus()
	repo, err := repository.New(context.Background(), storage, bus)
	require.NoError(t, err)

	ch, cancel := bus.Subscribe()
	defer cancel()

	require.NoError(t, repo.CreateStep(step("s1", "p1", 0)))
	// Close forces pending notifications out without waiting for the
	// notify window.
	repo.Close()

	select {
	case ev := <-ch:
		assert.Equal(t, domain.ChangeStep, ev.Kind)
		assert.Equal(t, "s1", ev.ID)
	default:
		t.Fatal("expected a change event after close")
	}
}

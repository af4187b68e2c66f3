package tests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/roteiro"
	"github.com/aretw0/roteiro/internal/adapters/file"
	"github.com/aretw0/roteiro/internal/adapters/sqlite"
	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/bundle"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/persistence/middleware"
	"github.com/aretw0/roteiro/pkg/render"
	"github.com/aretw0/roteiro/pkg/repository"
	"github.com/aretw0/roteiro/pkg/session"
)

const fibraBundle = `{
  "marcas": {
    "acme-fibra": {
      "saudacao": {
        "id": "saudacao",
        "title": "Saudação",
        "body": "Olá [Primeiro nome do cliente], aqui é [Nome do atendente] da ACME. CPF em cadastro: 123.456.789-01.",
        "buttons": [
          {"label": "Cliente confirmou os dados", "next": "oferta", "primary": true},
          {"label": "Cliente recusou", "next": "fim"}
        ]
      },
      "oferta": {
        "id": "oferta",
        "title": "Oferta",
        "body": "Apresente o plano de fibra de 500MB.",
        "buttons": [
          {"label": "Aceitou", "next": "fim"},
          {"label": "Quer pensar", "next": "fim"}
        ]
      }
    }
  }
}`

// TestSQLiteAttendanceLifecycle imports a bundle into a SQLite-backed
// engine, walks a full attendance, and verifies the script survives an
// engine restart against the same database file.
func TestSQLiteAttendanceLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "roteiro.db")

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)

	eng, err := roteiro.New(ctx, roteiro.WithStorage(store))
	require.NoError(t, err)

	report, err := eng.Import([]byte(fibraBundle))
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	assert.Equal(t, 1, report.ProductCount)
	assert.Equal(t, 2, report.StepCount)

	eng.Close()
	require.NoError(t, store.Close())

	// Second lifetime: hydrate from disk alone.
	store, err = sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	eng, err = roteiro.New(ctx, roteiro.WithStorage(store))
	require.NoError(t, err)
	defer eng.Close()

	state, err := eng.Start("acme-fibra")
	require.NoError(t, err)
	assert.Equal(t, "saudacao", state.CurrentStepID)

	view, err := eng.View(state, render.Placeholders{
		OperatorName:      "Ana",
		CustomerFirstName: "Maria",
	})
	require.NoError(t, err)
	assert.Contains(t, render.Flatten(view.Nodes), "Olá Maria, aqui é Ana da ACME.")

	state, err = eng.Advance(state, "saudacao-b1")
	require.NoError(t, err)
	assert.Equal(t, "oferta", state.CurrentStepID)

	state, err = eng.Advance(state, "oferta-b1")
	require.NoError(t, err)
	assert.True(t, state.Terminal)

	out, err := eng.Export("acme-fibra")
	require.NoError(t, err)
	assert.Contains(t, string(out), "\"oferta\"")

	var csvBuf bytes.Buffer
	product, err := eng.Repository().GetProduct("acme-fibra")
	require.NoError(t, err)
	err = bundle.WriteCSVReport(&csvBuf, product, eng.Repository().GetSteps("acme-fibra"), time.Now())
	require.NoError(t, err)
	assert.Contains(t, csvBuf.String(), "Oferta")
}

// TestEncryptedStorageAtRest wraps the file backend in the PII and
// encryption middlewares and checks that nothing readable reaches disk,
// while a reopened engine still decrypts transparently.
func TestEncryptedStorageAtRest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := bytes.Repeat([]byte{0x42}, 32)

	secure := middleware.Chain(
		middleware.NewPIIMiddleware([]string{middleware.CPFPattern}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)(file.New(dir))

	eng, err := roteiro.New(ctx, roteiro.WithStorage(secure))
	require.NoError(t, err)
	report, err := eng.Import([]byte(fibraBundle))
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	eng.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(raw, []byte("enc1:")), "record %s not enveloped", entry.Name())
		assert.NotContains(t, string(raw), "ACME")
		assert.NotContains(t, string(raw), "123.456.789-01")
	}

	// Reopen through the same chain: ciphertext decrypts, but the CPF
	// was masked before encryption and is gone for good.
	eng, err = roteiro.New(ctx, roteiro.WithStorage(secure))
	require.NoError(t, err)
	defer eng.Close()

	step, err := eng.Repository().GetStep("saudacao")
	require.NoError(t, err)
	assert.Contains(t, step.Content, "CPF em cadastro: ***")
	assert.NotContains(t, step.Content, "123.456.789-01")
}

// TestSessionManagerAttendance drives a full attendance through the
// server-side session layer instead of caller-held state.
func TestSessionManagerAttendance(t *testing.T) {
	ctx := context.Background()

	repo, err := repository.New(ctx, memory.NewStorage(), nil)
	require.NoError(t, err)
	defer repo.Close()

	_, err = bundle.Import(repo, []byte(fibraBundle))
	require.NoError(t, err)

	nav := runtime.NewNavigator(repo)
	mgr := session.NewManager(nav, memory.NewSessionStore())

	state, err := mgr.Start(ctx, "op-42", "acme-fibra")
	require.NoError(t, err)
	assert.Equal(t, "saudacao", state.CurrentStepID)

	state, err = mgr.Advance(ctx, "op-42", "saudacao-b1")
	require.NoError(t, err)
	assert.Equal(t, "oferta", state.CurrentStepID)

	state, ok, err := mgr.Back(ctx, "op-42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "saudacao", state.CurrentStepID)

	view, err := mgr.View(ctx, "op-42", render.Placeholders{CustomerFirstName: "Maria", OperatorName: "Ana"})
	require.NoError(t, err)
	assert.Contains(t, render.Flatten(view.Nodes), "Olá Maria")

	require.NoError(t, mgr.End(ctx, "op-42"))
	_, err = mgr.Load(ctx, "op-42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// TestFileStorageWatchSignalsChange covers the reload path used by watch
// mode: an out-of-band write to the data directory must surface on the
// Watch channel.
func TestFileStorageWatchSignalsChange(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "step:saudacao", []byte(`{"id":"saudacao"}`)))

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for watch event")
	}
}

// Sanity check that the percent-encoded key files round-trip through Keys.
func TestFileStorageKeyEncoding(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	require.NoError(t, store.Save(ctx, "step:a/b", []byte("x")))
	keys, err := store.Keys(ctx, "step:")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "step:a/b", keys[0])

	val, err := store.Load(ctx, "step:a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), val)
	assert.False(t, strings.Contains(keys[0], "%"), "keys must be decoded")
}

package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/persistence/middleware"
)

func TestPIIMiddleware_MasksCPF(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()
	store := middleware.NewPIIMiddleware([]string{middleware.CPFPattern})(underlying)

	require.NoError(t, store.Save(ctx, "step:s1",
		[]byte(`{"content":"Confirme o CPF 123.456.789-09 com o cliente"}`)))

	stored, err := underlying.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "123.456.789-09")
	assert.Contains(t, string(stored), "***")

	// Bare digits are masked too.
	require.NoError(t, store.Save(ctx, "step:s2", []byte("cpf 12345678909 ok")))
	stored, err = underlying.Load(ctx, "step:s2")
	require.NoError(t, err)
	assert.Equal(t, "cpf *** ok", string(stored))
}

func TestPIIMiddleware_LeavesOtherDataAlone(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()
	store := middleware.NewPIIMiddleware([]string{middleware.CPFPattern})(underlying)

	value := []byte("telefone 11 4002-8922, pedido 123456")
	require.NoError(t, store.Save(ctx, "step:s1", value))

	stored, err := underlying.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.Equal(t, value, stored)
}

func TestChain_OrderIsOutsideIn(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()

	key := generateKey(t)
	chained := middleware.Chain(
		middleware.NewPIIMiddleware([]string{middleware.CPFPattern}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)(underlying)

	require.NoError(t, chained.Save(ctx, "step:s1", []byte("CPF 123.456.789-09")))

	// Backend holds ciphertext, and decrypting yields the masked text.
	got, err := chained.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.Equal(t, "CPF ***", string(got))
}

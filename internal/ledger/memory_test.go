package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Create(ctx, "A1", "owner-1"))

	holder, err := m.CustodyOf(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", holder)

	t.Run("duplicate create rejected", func(t *testing.T) {
		assert.ErrorIs(t, m.Create(ctx, "A1", "owner-2"), ErrAssetExists)
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := m.CustodyOf(ctx, "missing")
		assert.ErrorIs(t, err, ErrUnknownAsset)
		assert.ErrorIs(t, m.TransferCustody(ctx, "missing", "a", "b"), ErrUnknownAsset)
	})

	t.Run("transfer requires current custodian", func(t *testing.T) {
		assert.ErrorIs(t, m.TransferCustody(ctx, "A1", "owner-2", "owner-3"), ErrNotCustodian)

		holder, err := m.CustodyOf(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, "owner-1", holder)
	})

	t.Run("transfer moves custody", func(t *testing.T) {
		require.NoError(t, m.TransferCustody(ctx, "A1", "owner-1", "owner-2"))

		holder, err := m.CustodyOf(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, "owner-2", holder)
	})
}

package treasury

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

func TestMemoryTreasury_Transfer(t *testing.T) {
	tr := NewMemoryTreasury()
	tr.SetBalance("alice", 1_000)
	ctx := context.Background()

	require.NoError(t, tr.Transfer(ctx, "alice", "escrow", 400))

	got, err := tr.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(600), got)

	got, err = tr.Balance(ctx, "escrow")
	require.NoError(t, err)
	assert.Equal(t, int64(400), got)
}

func TestMemoryTreasury_InsufficientFunds(t *testing.T) {
	tr := NewMemoryTreasury()
	tr.SetBalance("alice", 100)
	ctx := context.Background()

	err := tr.Transfer(ctx, "alice", "escrow", 101)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	got, err := tr.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestMemoryTreasury_UnknownSource(t *testing.T) {
	tr := NewMemoryTreasury()
	err := tr.Transfer(context.Background(), "ghost", "escrow", 10)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestMemoryTreasury_RejectsNonPositiveAmount(t *testing.T) {
	tr := NewMemoryTreasury()
	tr.SetBalance("alice", 100)
	ctx := context.Background()

	assert.ErrorIs(t, tr.Transfer(ctx, "alice", "escrow", 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, tr.Transfer(ctx, "alice", "escrow", -5), domain.ErrInvalidAmount)
}

func TestMemoryTreasury_SelfTransferIsNoop(t *testing.T) {
	tr := NewMemoryTreasury()
	tr.SetBalance("alice", 100)
	ctx := context.Background()

	require.NoError(t, tr.Transfer(ctx, "alice", "alice", 50))
	got, err := tr.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

func TestSettle_UpWins(t *testing.T) {
	// open 50000, close 55000, up 300 vs down 500, fee 500 bps
	res, err := Settle(Inputs{
		OpenPrice:    50_000,
		ClosePrice:   55_000,
		TotalUp:      300,
		TotalDown:    500,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeUp, res.Outcome)
	assert.False(t, res.IsPush)
	assert.Equal(t, int64(800), res.TotalPool)
	assert.Equal(t, int64(40), res.Fee)
	assert.Equal(t, int64(760), res.NetPool)
	assert.Equal(t, int64(300), res.WinningTotal)
}

func TestSettle_DownWins(t *testing.T) {
	res, err := Settle(Inputs{
		OpenPrice:    50_000,
		ClosePrice:   45_000,
		TotalUp:      400,
		TotalDown:    600,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeDown, res.Outcome)
	assert.False(t, res.IsPush)
	assert.Equal(t, int64(950), res.NetPool)
	assert.Equal(t, int64(600), res.WinningTotal)
}

func TestSettle_FlatIsPush(t *testing.T) {
	res, err := Settle(Inputs{
		OpenPrice:    50_000,
		ClosePrice:   50_000,
		TotalUp:      300,
		TotalDown:    500,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFlat, res.Outcome)
	assert.True(t, res.IsPush)
	assert.Zero(t, res.NetPool)
	assert.Zero(t, res.WinningTotal)
	assert.Zero(t, res.Fee)
}

func TestSettle_OneSidedIsPush(t *testing.T) {
	// Only up wagers: decisive price move still refunds, there was no
	// opposing risk.
	res, err := Settle(Inputs{
		OpenPrice:    50_000,
		ClosePrice:   60_000,
		TotalUp:      500,
		TotalDown:    0,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeUp, res.Outcome)
	assert.True(t, res.IsPush)
	assert.Zero(t, res.NetPool)
}

func TestSettle_EmptyIsPush(t *testing.T) {
	res, err := Settle(Inputs{
		OpenPrice:    50_000,
		ClosePrice:   49_000,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.True(t, res.IsPush)
	assert.Zero(t, res.TotalPool)
}

func TestSettle_ZeroFee(t *testing.T) {
	res, err := Settle(Inputs{
		OpenPrice:    100,
		ClosePrice:   101,
		TotalUp:      1000,
		TotalDown:    1000,
		HouseEdgeBps: 0,
	})
	require.NoError(t, err)

	assert.Zero(t, res.Fee)
	assert.Equal(t, int64(2000), res.NetPool)
}

func TestSettle_MaxFeeTakesWholePool(t *testing.T) {
	res, err := Settle(Inputs{
		OpenPrice:    100,
		ClosePrice:   101,
		TotalUp:      1000,
		TotalDown:    1000,
		HouseEdgeBps: 10_000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), res.Fee)
	assert.Zero(t, res.NetPool)
}

func TestSettle_FeeTruncates(t *testing.T) {
	// pool 999 at 500 bps: 999*500/10000 = 49.95 → 49
	res, err := Settle(Inputs{
		OpenPrice:    100,
		ClosePrice:   101,
		TotalUp:      499,
		TotalDown:    500,
		HouseEdgeBps: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(49), res.Fee)
	assert.Equal(t, int64(950), res.NetPool)
}

func TestSettle_Deterministic(t *testing.T) {
	in := Inputs{
		OpenPrice:    73_412,
		ClosePrice:   73_980,
		TotalUp:      123_456,
		TotalDown:    654_321,
		HouseEdgeBps: 250,
	}
	first, err := Settle(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Settle(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSettle_PoolOverflow(t *testing.T) {
	const big = int64(1) << 62
	_, err := Settle(Inputs{
		OpenPrice:    100,
		ClosePrice:   101,
		TotalUp:      big,
		TotalDown:    big,
		HouseEdgeBps: 500,
	})
	assert.ErrorIs(t, err, domain.ErrOverflow)
}

func TestSettle_LargePoolFeeNeedsWideIntermediate(t *testing.T) {
	// pool * bps overflows int64; the 128-bit intermediate must not.
	pool := int64(1) << 61
	res, err := Settle(Inputs{
		OpenPrice:    100,
		ClosePrice:   101,
		TotalUp:      pool / 2,
		TotalDown:    pool / 2,
		HouseEdgeBps: 9_999,
	})
	require.NoError(t, err)
	assert.Equal(t, pool, res.Fee+res.NetPool, "fee and net pool must reassemble the pool exactly")
	assert.Equal(t, pool/10_000*9_999+(pool%10_000)*9_999/10_000, res.Fee)
}

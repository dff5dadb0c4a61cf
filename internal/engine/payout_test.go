package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

func settledRound(outcome domain.Outcome, isPush bool, netPool, winningTotal int64) domain.Round {
	return domain.Round{
		ID:           "r1",
		Settled:      true,
		Outcome:      outcome,
		IsPush:       isPush,
		NetPool:      netPool,
		WinningTotal: winningTotal,
	}
}

func TestPayout_WinnerTakesWholeNetPool(t *testing.T) {
	// Scenario: P1 up 300, P2 down 500, up wins at 500 bps.
	round := settledRound(domain.OutcomeUp, false, 760, 300)

	p1, err := Payout(round, domain.Bet{Direction: domain.DirectionUp, Wager: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(760), p1)

	p2, err := Payout(round, domain.Bet{Direction: domain.DirectionDown, Wager: 500})
	require.NoError(t, err)
	assert.Zero(t, p2)
}

func TestPayout_ProportionalSplit(t *testing.T) {
	// P1 up 300, P2 up 200, P3 down 500; up wins; pool 1000, fee 50.
	round := settledRound(domain.OutcomeUp, false, 950, 500)

	p1, err := Payout(round, domain.Bet{Direction: domain.DirectionUp, Wager: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(570), p1)

	p2, err := Payout(round, domain.Bet{Direction: domain.DirectionUp, Wager: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(380), p2)

	p3, err := Payout(round, domain.Bet{Direction: domain.DirectionDown, Wager: 500})
	require.NoError(t, err)
	assert.Zero(t, p3)
}

func TestPayout_PushRefundsWagerExactly(t *testing.T) {
	round := settledRound(domain.OutcomeFlat, true, 0, 0)

	for _, wager := range []int64{1, 500, 123_456_789} {
		p, err := Payout(round, domain.Bet{Direction: domain.DirectionUp, Wager: wager})
		require.NoError(t, err)
		assert.Equal(t, wager, p, "push refunds the full wager, no fee")
	}
}

func TestPayout_UnsettledRound(t *testing.T) {
	_, err := Payout(domain.Round{ID: "r1"}, domain.Bet{Direction: domain.DirectionUp, Wager: 10})
	assert.ErrorIs(t, err, domain.ErrNotSettled)
}

func TestPayout_SharesSumWithinNetPool(t *testing.T) {
	// Floored shares may leave dust inside the escrow, but must never
	// exceed the net pool.
	cases := []struct {
		name    string
		netPool int64
		wagers  []int64
	}{
		{"even split", 950, []int64{300, 200}},
		{"awkward thirds", 1000, []int64{1, 1, 1}},
		{"uneven dust", 997, []int64{7, 13, 29, 51}},
		{"single winner", 12_345, []int64{777}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var winningTotal int64
			for _, w := range tc.wagers {
				winningTotal += w
			}
			round := settledRound(domain.OutcomeUp, false, tc.netPool, winningTotal)

			var sum int64
			for _, w := range tc.wagers {
				p, err := Payout(round, domain.Bet{Direction: domain.DirectionUp, Wager: w})
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p, int64(0))
				sum += p
			}
			assert.LessOrEqual(t, sum, tc.netPool)
		})
	}
}

func TestPayout_LargeValuesUse128BitProduct(t *testing.T) {
	netPool := int64(1)<<60 - 7
	winningTotal := int64(1) << 59
	round := settledRound(domain.OutcomeDown, false, netPool, winningTotal)

	p, err := Payout(round, domain.Bet{Direction: domain.DirectionDown, Wager: winningTotal / 3})
	require.NoError(t, err)
	assert.Greater(t, p, int64(0))
	assert.LessOrEqual(t, p, netPool)
}

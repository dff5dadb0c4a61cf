package engine

import (
	"github.com/altmarkets/parimutuel/internal/domain"
)

// Payout computes a bet's entitlement from the frozen state of a settled
// round. Push rounds refund the original wager in full, with no fee
// deducted. Winners receive floor(net_pool * wager / winning_total) — their
// proportional share of the net pool, truncated. Losing bets are owed zero.
//
// Since pushes set IsPush, WinningTotal is guaranteed positive whenever a
// proportional share is computed.
func Payout(round domain.Round, bet domain.Bet) (int64, error) {
	if !round.Settled {
		return 0, domain.ErrNotSettled
	}
	if round.IsPush {
		return bet.Wager, nil
	}
	if !round.Outcome.Wins(bet.Direction) {
		return 0, nil
	}
	return domain.MulDiv(round.NetPool, bet.Wager, round.WinningTotal)
}

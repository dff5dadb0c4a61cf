// Package engine implements the pari-mutuel settlement arithmetic as pure
// functions over frozen inputs. Keeping the math free of storage and adapter
// concerns makes it a deterministic function of its inputs: identical prices,
// totals, and fee always produce an identical settlement.
package engine

import (
	"github.com/altmarkets/parimutuel/internal/domain"
)

// Inputs are the values a settlement is computed from.
type Inputs struct {
	OpenPrice    int64
	ClosePrice   int64
	TotalUp      int64
	TotalDown    int64
	HouseEdgeBps int64
}

// Result is the frozen outcome of a settlement computation.
type Result struct {
	Outcome      domain.Outcome
	IsPush       bool
	TotalPool    int64
	Fee          int64
	NetPool      int64
	WinningTotal int64
}

// Settle classifies the round outcome and computes the fee-adjusted pool.
//
// A round is a push (all wagers refunded, no fee) when the market was flat,
// had no wagers at all, or had wagers on only one side — without genuine
// counter-risk there is nothing to win from. Otherwise the house fee is
// taken once off the whole pool, with integer truncation, so rounding error
// never compounds across individual wagers.
func Settle(in Inputs) (Result, error) {
	totalPool, err := domain.CheckedAdd(in.TotalUp, in.TotalDown)
	if err != nil {
		return Result{}, err
	}

	var outcome domain.Outcome
	switch {
	case in.ClosePrice > in.OpenPrice:
		outcome = domain.OutcomeUp
	case in.ClosePrice < in.OpenPrice:
		outcome = domain.OutcomeDown
	default:
		outcome = domain.OutcomeFlat
	}

	isPush := outcome == domain.OutcomeFlat ||
		totalPool == 0 ||
		in.TotalUp == 0 ||
		in.TotalDown == 0

	res := Result{
		Outcome:   outcome,
		IsPush:    isPush,
		TotalPool: totalPool,
	}
	if isPush {
		return res, nil
	}

	fee, err := domain.MulDiv(totalPool, in.HouseEdgeBps, domain.BasisPointsDivisor)
	if err != nil {
		return Result{}, err
	}
	netPool, err := domain.CheckedSub(totalPool, fee)
	if err != nil {
		return Result{}, err
	}

	res.Fee = fee
	res.NetPool = netPool
	if outcome == domain.OutcomeUp {
		res.WinningTotal = in.TotalUp
	} else {
		res.WinningTotal = in.TotalDown
	}
	return res, nil
}

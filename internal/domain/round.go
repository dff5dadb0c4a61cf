package domain

import "time"

// Direction is the side of the market a participant wagers on.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is one of the two accepted wager directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Outcome is the settled result of a round.
type Outcome string

const (
	OutcomeUp   Outcome = "up"
	OutcomeDown Outcome = "down"
	OutcomeFlat Outcome = "flat"
)

// Wins reports whether a wager in direction d wins under this outcome.
func (o Outcome) Wins(d Direction) bool {
	return string(o) == string(d)
}

// Round is one prediction market window: participants wager up or down on an
// asset's price between creation and CloseTime; after CloseTime the round is
// settled against the feed's closing price and frozen permanently.
type Round struct {
	ID        string    `json:"id"`
	Asset     string    `json:"asset"`
	OpenPrice int64     `json:"open_price"`
	// ClosePrice is zero until the round is settled.
	ClosePrice int64     `json:"close_price"`
	CloseTime  time.Time `json:"close_time"`

	// TotalUp and TotalDown are running sums of escrowed wagers per side.
	// They change only through wager placement, and only before settlement.
	TotalUp   int64 `json:"total_up"`
	TotalDown int64 `json:"total_down"`

	// Settlement fields. Written exactly once, together, by Settle.
	Settled      bool    `json:"settled"`
	Outcome      Outcome `json:"outcome,omitempty"`
	IsPush       bool    `json:"is_push"`
	NetPool      int64   `json:"net_pool"`
	WinningTotal int64   `json:"winning_total"`

	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// TotalPool returns the overflow-checked sum of both sides' wagers.
func (r Round) TotalPool() (int64, error) {
	return CheckedAdd(r.TotalUp, r.TotalDown)
}

// ClosedAt reports whether the round no longer accepts wagers at time now.
func (r Round) ClosedAt(now time.Time) bool {
	return !now.Before(r.CloseTime)
}

// Settlement carries the write-once fields frozen onto a round when it is
// settled. RoundStore.Settle applies it conditionally so the false→true
// transition of Settled happens exactly once.
type Settlement struct {
	ClosePrice   int64
	Outcome      Outcome
	IsPush       bool
	NetPool      int64
	WinningTotal int64
	SettledAt    time.Time
}

// MarketParams are the immutable market parameters fixed at initialization:
// the administrator allowed to open rounds, the escrow account wagers are
// held in, the wager bounds, and the house fee in basis points.
type MarketParams struct {
	Admin         string
	EscrowAccount string
	MinWager      int64
	MaxWager      int64
	HouseEdgeBps  int64
}

// BasisPointsDivisor converts basis points to a fraction of the pool.
const BasisPointsDivisor int64 = 10_000

// Validate checks the parameters once at initialization. A zero
// MarketParams fails with ErrNotConfigured so reads of unset configuration
// cannot go unnoticed.
func (p MarketParams) Validate() error {
	if p.Admin == "" || p.EscrowAccount == "" {
		return ErrNotConfigured
	}
	if p.MinWager <= 0 || p.MaxWager < p.MinWager {
		return ErrInvalidAmount
	}
	if p.HouseEdgeBps < 0 || p.HouseEdgeBps > BasisPointsDivisor {
		return ErrInvalidAmount
	}
	return nil
}

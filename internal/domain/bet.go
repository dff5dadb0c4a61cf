package domain

import "time"

// Bet is one participant's wager in one round, keyed by (RoundID,
// Participant). A bet is immutable after creation except for the claimed
// flag, which transitions false→true exactly once when the payout (or push
// refund) is released. Bets are never deleted by the core; each one is a
// permanent receipt.
type Bet struct {
	RoundID     string    `json:"round_id"`
	Participant string    `json:"participant"`
	Direction   Direction `json:"direction"`
	Wager       int64     `json:"wager"`
	Claimed     bool      `json:"claimed"`

	PlacedAt  time.Time  `json:"placed_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

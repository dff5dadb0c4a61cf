package domain

import "time"

// Event stream and pub/sub channel shared by all market notifications.
const (
	EventStream  = "market_events"
	EventChannel = "market_events"
)

// Event names as recorded in the audit log and carried in payloads.
const (
	EventMarketOpened = "market_opened"
	EventWagerPlaced  = "wager_placed"
	EventRoundSettled = "round_settled"
	EventClaimed      = "claimed"
)

// MarketOpenedEvent is published when a round is created.
type MarketOpenedEvent struct {
	Event     string    `json:"event"`
	RoundID   string    `json:"round_id"`
	Asset     string    `json:"asset"`
	OpenPrice int64     `json:"open_price"`
	CloseTime time.Time `json:"close_time"`
}

// WagerPlacedEvent is published when a wager is escrowed.
type WagerPlacedEvent struct {
	Event       string    `json:"event"`
	RoundID     string    `json:"round_id"`
	Participant string    `json:"participant"`
	Direction   Direction `json:"direction"`
	Wager       int64     `json:"wager"`
}

// RoundSettledEvent is published when a round is frozen.
type RoundSettledEvent struct {
	Event      string  `json:"event"`
	RoundID    string  `json:"round_id"`
	ClosePrice int64   `json:"close_price"`
	Outcome    Outcome `json:"outcome"`
	IsPush     bool    `json:"is_push"`
	NetPool    int64   `json:"net_pool"`
}

// ClaimedEvent is published when a payout or refund is released.
type ClaimedEvent struct {
	Event       string `json:"event"`
	RoundID     string `json:"round_id"`
	Participant string `json:"participant"`
	Payout      int64  `json:"payout"`
}

package domain

import "errors"

// Sentinel errors for the prediction market core. Every fallible operation
// returns one of these (possibly wrapped); callers match with errors.Is.
var (
	// Configuration
	ErrNotConfigured = errors.New("market parameters not configured")

	// Authorization
	ErrNotAuthorized = errors.New("not authorized")

	// Validation
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrWagerTooLow      = errors.New("wager below minimum")
	ErrWagerTooHigh     = errors.New("wager above maximum")
	ErrInvalidCloseTime = errors.New("close time must be in the future")
	ErrInvalidPrice     = errors.New("price must be positive")

	// Round state
	ErrRoundExists    = errors.New("round already exists")
	ErrRoundNotFound  = errors.New("round not found")
	ErrAlreadySettled = errors.New("round already settled")
	ErrNotSettled     = errors.New("round not settled")
	ErrRoundNotClosed = errors.New("round not yet closed")
	ErrRoundClosed    = errors.New("round closed for wagers")

	// Bet state
	ErrBetExists      = errors.New("bet already placed")
	ErrBetNotFound    = errors.New("bet not found")
	ErrAlreadyClaimed = errors.New("bet already claimed")
	ErrNoPayout       = errors.New("no payout owed")

	// Arithmetic
	ErrOverflow = errors.New("arithmetic overflow")

	// Funds
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")

	// Infrastructure
	ErrNotFound = errors.New("not found")
	ErrLockHeld = errors.New("lock already held")
)

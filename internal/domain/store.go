package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// RoundStore persists prediction market rounds. Implementations must enforce
// the two conditional transitions at the storage layer: totals change only
// while the round is unsettled, and Settle succeeds at most once per round.
type RoundStore interface {
	// Create stores a new round. It returns ErrRoundExists when the ID is
	// already registered.
	Create(ctx context.Context, round Round) error

	// Get returns the round or ErrRoundNotFound.
	Get(ctx context.Context, id string) (Round, error)

	// UpdateTotals replaces the side aggregates of an unsettled round.
	// It returns ErrAlreadySettled when the round is already frozen.
	UpdateTotals(ctx context.Context, id string, totalUp, totalDown int64) error

	// Settle freezes the round with the given settlement exactly once.
	// It returns ErrRoundNotFound or ErrAlreadySettled.
	Settle(ctx context.Context, id string, s Settlement) error

	// ListSettledBefore returns rounds settled strictly before the cutoff,
	// candidates for archival.
	ListSettledBefore(ctx context.Context, cutoff time.Time) ([]Round, error)

	// Delete removes a single round. Callers must archive the round and
	// delete its bets first; an outstanding entitlement blocks deletion at
	// the retention layer, not here. Returns ErrRoundNotFound.
	Delete(ctx context.Context, id string) error
}

// BetStore persists wagers keyed by (round, participant).
type BetStore interface {
	// Create stores a new bet. It returns ErrBetExists when the participant
	// already wagered in the round.
	Create(ctx context.Context, bet Bet) error

	// Get returns the bet or ErrBetNotFound.
	Get(ctx context.Context, roundID, participant string) (Bet, error)

	// MarkClaimed flips the claimed flag exactly once. It returns
	// ErrBetNotFound or ErrAlreadyClaimed.
	MarkClaimed(ctx context.Context, roundID, participant string, at time.Time) error

	// ListByRound returns all bets in a round.
	ListByRound(ctx context.Context, roundID string, opts ListOpts) ([]Bet, error)

	// DeleteByRound removes every bet of a round and returns the number
	// removed. Callers must archive all of them first, claimed or not.
	DeleteByRound(ctx context.Context, roundID string) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log. Entries are written only
// after the state mutation they describe has committed.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

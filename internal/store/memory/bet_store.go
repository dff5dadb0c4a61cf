package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

type betKey struct {
	roundID     string
	participant string
}

// BetStore implements domain.BetStore in memory.
type BetStore struct {
	mu   sync.RWMutex
	bets map[betKey]domain.Bet
}

// NewBetStore creates an empty in-memory BetStore.
func NewBetStore() *BetStore {
	return &BetStore{bets: make(map[betKey]domain.Bet)}
}

// Create stores a new bet, rejecting duplicates per (round, participant).
func (s *BetStore) Create(_ context.Context, bet domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := betKey{bet.RoundID, bet.Participant}
	if _, ok := s.bets[key]; ok {
		return domain.ErrBetExists
	}
	s.bets[key] = bet
	return nil
}

// Get returns the bet or ErrBetNotFound.
func (s *BetStore) Get(_ context.Context, roundID, participant string) (domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bet, ok := s.bets[betKey{roundID, participant}]
	if !ok {
		return domain.Bet{}, domain.ErrBetNotFound
	}
	return bet, nil
}

// MarkClaimed flips the claimed flag exactly once.
func (s *BetStore) MarkClaimed(_ context.Context, roundID, participant string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := betKey{roundID, participant}
	bet, ok := s.bets[key]
	if !ok {
		return domain.ErrBetNotFound
	}
	if bet.Claimed {
		return domain.ErrAlreadyClaimed
	}
	bet.Claimed = true
	claimedAt := at
	bet.ClaimedAt = &claimedAt
	s.bets[key] = bet
	return nil
}

// ListByRound returns all bets in a round ordered by placement time.
func (s *BetStore) ListByRound(_ context.Context, roundID string, opts domain.ListOpts) ([]domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Bet
	for key, bet := range s.bets {
		if key.roundID == roundID {
			out = append(out, bet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// DeleteByRound removes every bet of a round.
func (s *BetStore) DeleteByRound(_ context.Context, roundID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key := range s.bets {
		if key.roundID == roundID {
			delete(s.bets, key)
			n++
		}
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)

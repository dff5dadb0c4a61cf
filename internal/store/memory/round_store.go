// Package memory implements the domain store interfaces with mutex-guarded
// maps. It backs the standalone run mode and the unit tests, which exercise
// the settlement logic without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// RoundStore implements domain.RoundStore in memory.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[string]domain.Round
}

// NewRoundStore creates an empty in-memory RoundStore.
func NewRoundStore() *RoundStore {
	return &RoundStore{rounds: make(map[string]domain.Round)}
}

// Create stores a new round, rejecting duplicate IDs.
func (s *RoundStore) Create(_ context.Context, round domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[round.ID]; ok {
		return domain.ErrRoundExists
	}
	s.rounds[round.ID] = round
	return nil
}

// Get returns the round or ErrRoundNotFound.
func (s *RoundStore) Get(_ context.Context, id string) (domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	if !ok {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	return round, nil
}

// UpdateTotals replaces the side aggregates of an unsettled round.
func (s *RoundStore) UpdateTotals(_ context.Context, id string, totalUp, totalDown int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[id]
	if !ok {
		return domain.ErrRoundNotFound
	}
	if round.Settled {
		return domain.ErrAlreadySettled
	}
	round.TotalUp = totalUp
	round.TotalDown = totalDown
	s.rounds[id] = round
	return nil
}

// Settle freezes the round exactly once.
func (s *RoundStore) Settle(_ context.Context, id string, res domain.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[id]
	if !ok {
		return domain.ErrRoundNotFound
	}
	if round.Settled {
		return domain.ErrAlreadySettled
	}

	round.ClosePrice = res.ClosePrice
	round.Settled = true
	round.Outcome = res.Outcome
	round.IsPush = res.IsPush
	round.NetPool = res.NetPool
	round.WinningTotal = res.WinningTotal
	at := res.SettledAt
	round.SettledAt = &at
	s.rounds[id] = round
	return nil
}

// ListSettledBefore returns rounds settled strictly before the cutoff.
func (s *RoundStore) ListSettledBefore(_ context.Context, cutoff time.Time) ([]domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Round
	for _, round := range s.rounds {
		if round.Settled && round.SettledAt != nil && round.SettledAt.Before(cutoff) {
			out = append(out, round)
		}
	}
	return out, nil
}

// Delete removes a single round.
func (s *RoundStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[id]; !ok {
		return domain.ErrRoundNotFound
	}
	delete(s.rounds, id)
	return nil
}

// Compile-time interface check.
var _ domain.RoundStore = (*RoundStore)(nil)

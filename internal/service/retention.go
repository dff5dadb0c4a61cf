package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/engine"
)

// RetentionService archives settled history to cold storage and prunes it
// from the hot stores. Rounds and bets younger than the retention window
// are never touched, archival must succeed before anything is deleted, and
// a round with an unclaimed entitlement is never pruned.
type RetentionService struct {
	rounds    domain.RoundStore
	bets      domain.BetStore
	archiver  domain.Archiver
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRetentionService creates a RetentionService. retention is how long
// settled history stays hot; interval is how often the sweep runs.
func NewRetentionService(
	rounds domain.RoundStore,
	bets domain.BetStore,
	archiver domain.Archiver,
	retention, interval time.Duration,
	logger *slog.Logger,
) *RetentionService {
	return &RetentionService{
		rounds:    rounds,
		bets:      bets,
		archiver:  archiver,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "retention_service")),
		now:       time.Now,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *RetentionService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.WarnContext(ctx, "retention sweep failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Sweep archives and prunes settled rounds past the retention window. A
// round still carrying an unclaimed entitlement (a push refund or a winning
// share not yet collected) is skipped and stays hot until it is claimed:
// pruning it would strand the payout in escrow with nothing left to claim
// against. Prunable rounds have every bet archived, claimed and losing
// alike, so the wager receipt survives the prune. Archival completes for
// the whole batch before anything is deleted, and within a round bets are
// deleted before the round itself.
func (s *RetentionService) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)

	candidates, err := s.rounds.ListSettledBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("retention_service: list settled rounds: %w", err)
	}

	var (
		prunable    []domain.Round
		betsByRound = make(map[string][]domain.Bet)
		skipped     int64
	)
	for _, round := range candidates {
		roundBets, err := s.bets.ListByRound(ctx, round.ID, domain.ListOpts{})
		if err != nil {
			return fmt.Errorf("retention_service: list bets for %s: %w", round.ID, err)
		}

		owed := false
		for _, bet := range roundBets {
			if bet.Claimed {
				continue
			}
			payout, err := engine.Payout(round, bet)
			if err != nil {
				return fmt.Errorf("retention_service: payout for %s/%s: %w", round.ID, bet.Participant, err)
			}
			if payout > 0 {
				owed = true
				break
			}
		}
		if owed {
			skipped++
			continue
		}

		prunable = append(prunable, round)
		betsByRound[round.ID] = roundBets
	}

	if len(prunable) == 0 {
		if skipped > 0 {
			s.logger.InfoContext(ctx, "retention sweep found only rounds with unclaimed payouts",
				slog.Time("cutoff", cutoff),
				slog.Int64("skipped_rounds", skipped),
			)
		}
		return nil
	}

	var batch []domain.Bet
	for _, round := range prunable {
		batch = append(batch, betsByRound[round.ID]...)
	}
	if err := s.archiver.ArchiveBets(ctx, batch); err != nil {
		return fmt.Errorf("retention_service: archive bets: %w", err)
	}
	if err := s.archiver.ArchiveRounds(ctx, prunable); err != nil {
		return fmt.Errorf("retention_service: archive rounds: %w", err)
	}

	var prunedRounds, prunedBets int64
	for _, round := range prunable {
		n, err := s.bets.DeleteByRound(ctx, round.ID)
		if err != nil {
			return fmt.Errorf("retention_service: delete bets for %s: %w", round.ID, err)
		}
		prunedBets += n
		if err := s.rounds.Delete(ctx, round.ID); err != nil {
			return fmt.Errorf("retention_service: delete round %s: %w", round.ID, err)
		}
		prunedRounds++
	}

	s.logger.InfoContext(ctx, "retention sweep complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("pruned_rounds", prunedRounds),
		slog.Int64("pruned_bets", prunedBets),
		slog.Int64("skipped_rounds", skipped),
	)
	return nil
}

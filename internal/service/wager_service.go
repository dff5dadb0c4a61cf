package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// lockTTL bounds how long a crashed holder can block a round.
const lockTTL = 10 * time.Second

// WagerService escrows wagers into open rounds.
type WagerService struct {
	params   domain.MarketParams
	rounds   domain.RoundStore
	bets     domain.BetStore
	treasury domain.Treasury
	cache    domain.RoundCache
	locks    domain.LockManager
	authz    domain.Authorizer
	audit    domain.AuditStore
	bus      domain.SignalBus
	logger   *slog.Logger
	now      func() time.Time
}

// NewWagerService creates a WagerService with all required dependencies.
func NewWagerService(
	params domain.MarketParams,
	rounds domain.RoundStore,
	bets domain.BetStore,
	treasury domain.Treasury,
	cache domain.RoundCache,
	locks domain.LockManager,
	authz domain.Authorizer,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *WagerService {
	return &WagerService{
		params:   params,
		rounds:   rounds,
		bets:     bets,
		treasury: treasury,
		cache:    cache,
		locks:    locks,
		authz:    authz,
		audit:    audit,
		bus:      bus,
		logger:   logger.With(slog.String("component", "wager_service")),
		now:      time.Now,
	}
}

// PlaceWager validates and escrows a wager. The full validation ladder runs
// before any state changes: authorization, direction, amount and bounds,
// round existence, settlement and close status, and the one-bet-per-
// participant rule. Only then is the wager transferred into escrow and
// recorded, all under the round's lock so concurrent placements cannot lose
// totals updates.
func (s *WagerService) PlaceWager(ctx context.Context, roundID, participant string, direction domain.Direction, amount int64) (domain.Bet, error) {
	if err := s.authz.RequireAuthorized(ctx, participant); err != nil {
		return domain.Bet{}, err
	}
	if !direction.Valid() {
		return domain.Bet{}, domain.ErrInvalidDirection
	}
	if amount <= 0 {
		return domain.Bet{}, domain.ErrInvalidAmount
	}
	if amount < s.params.MinWager {
		return domain.Bet{}, domain.ErrWagerTooLow
	}
	if amount > s.params.MaxWager {
		return domain.Bet{}, domain.ErrWagerTooHigh
	}

	unlock, err := s.locks.Acquire(ctx, "round:"+roundID, lockTTL)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("wager_service: lock round %s: %w", roundID, err)
	}
	defer unlock()

	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("wager_service: get round %s: %w", roundID, err)
	}
	if round.Settled {
		return domain.Bet{}, domain.ErrAlreadySettled
	}
	if round.ClosedAt(s.now()) {
		return domain.Bet{}, domain.ErrRoundClosed
	}

	if _, err := s.bets.Get(ctx, roundID, participant); err == nil {
		return domain.Bet{}, domain.ErrBetExists
	} else if !errors.Is(err, domain.ErrBetNotFound) {
		return domain.Bet{}, fmt.Errorf("wager_service: check bet %s/%s: %w", roundID, participant, err)
	}

	// Totals must stay addable before funds move.
	totalUp, totalDown := round.TotalUp, round.TotalDown
	switch direction {
	case domain.DirectionUp:
		totalUp, err = domain.CheckedAdd(totalUp, amount)
	case domain.DirectionDown:
		totalDown, err = domain.CheckedAdd(totalDown, amount)
	}
	if err != nil {
		return domain.Bet{}, err
	}

	if err := s.treasury.Transfer(ctx, participant, s.params.EscrowAccount, amount); err != nil {
		return domain.Bet{}, fmt.Errorf("wager_service: escrow %d from %s: %w", amount, participant, err)
	}

	if err := s.rounds.UpdateTotals(ctx, roundID, totalUp, totalDown); err != nil {
		return domain.Bet{}, fmt.Errorf("wager_service: update totals for %s: %w", roundID, err)
	}

	bet := domain.Bet{
		RoundID:     roundID,
		Participant: participant,
		Direction:   direction,
		Wager:       amount,
		PlacedAt:    s.now(),
	}
	if err := s.bets.Create(ctx, bet); err != nil {
		return domain.Bet{}, fmt.Errorf("wager_service: create bet %s/%s: %w", roundID, participant, err)
	}

	if cacheErr := s.cache.Invalidate(ctx, roundID); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed",
			slog.String("round_id", roundID),
			slog.String("error", cacheErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wager placed",
		slog.String("round_id", roundID),
		slog.String("participant", participant),
		slog.String("direction", string(direction)),
		slog.Int64("wager", amount),
	)
	announce(ctx, s.audit, s.bus, s.logger, domain.EventWagerPlaced,
		map[string]any{
			"round_id":    roundID,
			"participant": participant,
			"direction":   string(direction),
			"wager":       amount,
		},
		domain.WagerPlacedEvent{
			Event:       domain.EventWagerPlaced,
			RoundID:     roundID,
			Participant: participant,
			Direction:   direction,
			Wager:       amount,
		})

	return bet, nil
}

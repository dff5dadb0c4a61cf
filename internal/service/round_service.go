package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// RoundService opens and reads prediction market rounds.
type RoundService struct {
	params domain.MarketParams
	rounds domain.RoundStore
	cache  domain.RoundCache
	feed   domain.PriceFeed
	authz  domain.Authorizer
	audit  domain.AuditStore
	bus    domain.SignalBus
	logger *slog.Logger
	now    func() time.Time
}

// NewRoundService creates a RoundService with all required dependencies.
func NewRoundService(
	params domain.MarketParams,
	rounds domain.RoundStore,
	cache domain.RoundCache,
	feed domain.PriceFeed,
	authz domain.Authorizer,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *RoundService {
	return &RoundService{
		params: params,
		rounds: rounds,
		cache:  cache,
		feed:   feed,
		authz:  authz,
		audit:  audit,
		bus:    bus,
		logger: logger.With(slog.String("component", "round_service")),
		now:    time.Now,
	}
}

// OpenRound creates a new round for the asset, snapshotting the feed's
// current price as the open price. Only the market admin may open rounds,
// and the close time must lie in the future.
func (s *RoundService) OpenRound(ctx context.Context, id, asset string, closeTime time.Time) (domain.Round, error) {
	if err := s.authz.RequireAuthorized(ctx, s.params.Admin); err != nil {
		return domain.Round{}, err
	}

	now := s.now()
	if !closeTime.After(now) {
		return domain.Round{}, domain.ErrInvalidCloseTime
	}

	openPrice, err := s.feed.GetPrice(ctx, asset)
	if err != nil {
		return domain.Round{}, fmt.Errorf("round_service: open price for %s: %w", asset, err)
	}
	if openPrice <= 0 {
		return domain.Round{}, domain.ErrInvalidPrice
	}

	round := domain.Round{
		ID:        id,
		Asset:     asset,
		OpenPrice: openPrice,
		CloseTime: closeTime,
		CreatedAt: now,
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return domain.Round{}, fmt.Errorf("round_service: create round %s: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, round); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache set failed",
			slog.String("round_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "round opened",
		slog.String("round_id", id),
		slog.String("asset", asset),
		slog.Int64("open_price", openPrice),
		slog.Time("close_time", closeTime),
	)
	announce(ctx, s.audit, s.bus, s.logger, domain.EventMarketOpened,
		map[string]any{
			"round_id":   id,
			"asset":      asset,
			"open_price": openPrice,
		},
		domain.MarketOpenedEvent{
			Event:     domain.EventMarketOpened,
			RoundID:   id,
			Asset:     asset,
			OpenPrice: openPrice,
			CloseTime: closeTime,
		})

	return round, nil
}

// GetRound retrieves a round by ID, checking the cache first and falling
// back to the store on a miss.
func (s *RoundService) GetRound(ctx context.Context, id string) (domain.Round, error) {
	round, err := s.cache.Get(ctx, id)
	if err == nil {
		return round, nil
	}

	round, err = s.rounds.Get(ctx, id)
	if err != nil {
		return domain.Round{}, fmt.Errorf("round_service: get round %s: %w", id, err)
	}

	if cacheErr := s.cache.Set(ctx, round); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache set failed",
			slog.String("round_id", id),
			slog.String("error", cacheErr.Error()),
		)
	}
	return round, nil
}

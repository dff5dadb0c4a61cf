package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/engine"
)

// SettlementService freezes rounds against the feed's closing price.
// Settlement is permissionless: once the close time has passed, any caller
// may crank it, and the conditional store write guarantees only the first
// attempt lands.
type SettlementService struct {
	params domain.MarketParams
	rounds domain.RoundStore
	feed   domain.PriceFeed
	cache  domain.RoundCache
	locks  domain.LockManager
	audit  domain.AuditStore
	bus    domain.SignalBus
	logger *slog.Logger
	now    func() time.Time
}

// NewSettlementService creates a SettlementService with all required
// dependencies.
func NewSettlementService(
	params domain.MarketParams,
	rounds domain.RoundStore,
	feed domain.PriceFeed,
	cache domain.RoundCache,
	locks domain.LockManager,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		params: params,
		rounds: rounds,
		feed:   feed,
		cache:  cache,
		locks:  locks,
		audit:  audit,
		bus:    bus,
		logger: logger.With(slog.String("component", "settlement_service")),
		now:    time.Now,
	}
}

// SettleRound settles a closed round exactly once: it reads the closing
// price, classifies the outcome, takes the house fee off the whole pool and
// freezes the result. All settlement fields are written together.
func (s *SettlementService) SettleRound(ctx context.Context, roundID string) (domain.Round, error) {
	unlock, err := s.locks.Acquire(ctx, "round:"+roundID, lockTTL)
	if err != nil {
		return domain.Round{}, fmt.Errorf("settlement_service: lock round %s: %w", roundID, err)
	}
	defer unlock()

	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("settlement_service: get round %s: %w", roundID, err)
	}
	if round.Settled {
		return domain.Round{}, domain.ErrAlreadySettled
	}
	if !round.ClosedAt(s.now()) {
		return domain.Round{}, domain.ErrRoundNotClosed
	}

	closePrice, err := s.feed.GetPrice(ctx, round.Asset)
	if err != nil {
		return domain.Round{}, fmt.Errorf("settlement_service: close price for %s: %w", round.Asset, err)
	}
	// A non-positive quote is an oracle fault, not a market move. Settling
	// on it would classify the round Down and hand the pool to one side, so
	// the round stays open and the next crank retries with a sane quote.
	if closePrice <= 0 {
		return domain.Round{}, domain.ErrInvalidPrice
	}

	res, err := engine.Settle(engine.Inputs{
		OpenPrice:    round.OpenPrice,
		ClosePrice:   closePrice,
		TotalUp:      round.TotalUp,
		TotalDown:    round.TotalDown,
		HouseEdgeBps: s.params.HouseEdgeBps,
	})
	if err != nil {
		return domain.Round{}, fmt.Errorf("settlement_service: settle %s: %w", roundID, err)
	}

	settledAt := s.now()
	settlement := domain.Settlement{
		ClosePrice:   closePrice,
		Outcome:      res.Outcome,
		IsPush:       res.IsPush,
		NetPool:      res.NetPool,
		WinningTotal: res.WinningTotal,
		SettledAt:    settledAt,
	}
	if err := s.rounds.Settle(ctx, roundID, settlement); err != nil {
		return domain.Round{}, fmt.Errorf("settlement_service: freeze %s: %w", roundID, err)
	}

	if cacheErr := s.cache.Invalidate(ctx, roundID); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed",
			slog.String("round_id", roundID),
			slog.String("error", cacheErr.Error()),
		)
	}

	round.ClosePrice = closePrice
	round.Settled = true
	round.Outcome = res.Outcome
	round.IsPush = res.IsPush
	round.NetPool = res.NetPool
	round.WinningTotal = res.WinningTotal
	round.SettledAt = &settledAt

	s.logger.InfoContext(ctx, "round settled",
		slog.String("round_id", roundID),
		slog.Int64("close_price", closePrice),
		slog.String("outcome", string(res.Outcome)),
		slog.Bool("is_push", res.IsPush),
		slog.Int64("fee", res.Fee),
		slog.Int64("net_pool", res.NetPool),
	)
	announce(ctx, s.audit, s.bus, s.logger, domain.EventRoundSettled,
		map[string]any{
			"round_id":    roundID,
			"close_price": closePrice,
			"outcome":     string(res.Outcome),
			"is_push":     res.IsPush,
			"fee":         res.Fee,
			"net_pool":    res.NetPool,
		},
		domain.RoundSettledEvent{
			Event:      domain.EventRoundSettled,
			RoundID:    roundID,
			ClosePrice: closePrice,
			Outcome:    res.Outcome,
			IsPush:     res.IsPush,
			NetPool:    res.NetPool,
		})

	return round, nil
}

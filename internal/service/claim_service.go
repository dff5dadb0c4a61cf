package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/engine"
)

// ClaimService releases payouts and push refunds from escrow. Claims are
// pull-based: nothing is paid at settlement, each participant redeems their
// own bet.
type ClaimService struct {
	params   domain.MarketParams
	rounds   domain.RoundStore
	bets     domain.BetStore
	treasury domain.Treasury
	authz    domain.Authorizer
	audit    domain.AuditStore
	bus      domain.SignalBus
	logger   *slog.Logger
	now      func() time.Time
}

// NewClaimService creates a ClaimService with all required dependencies.
func NewClaimService(
	params domain.MarketParams,
	rounds domain.RoundStore,
	bets domain.BetStore,
	treasury domain.Treasury,
	authz domain.Authorizer,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *ClaimService {
	return &ClaimService{
		params:   params,
		rounds:   rounds,
		bets:     bets,
		treasury: treasury,
		authz:    authz,
		audit:    audit,
		bus:      bus,
		logger:   logger.With(slog.String("component", "claim_service")),
		now:      time.Now,
	}
}

// Claim computes the participant's entitlement from the frozen round and
// releases it from escrow. The claimed flag is committed before the funds
// move, so a retried claim can never pay twice; losing bets fail with
// ErrNoPayout and stay unclaimed.
func (s *ClaimService) Claim(ctx context.Context, roundID, participant string) (int64, error) {
	if err := s.authz.RequireAuthorized(ctx, participant); err != nil {
		return 0, err
	}

	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("claim_service: get round %s: %w", roundID, err)
	}
	if !round.Settled {
		return 0, domain.ErrNotSettled
	}

	bet, err := s.bets.Get(ctx, roundID, participant)
	if err != nil {
		return 0, fmt.Errorf("claim_service: get bet %s/%s: %w", roundID, participant, err)
	}
	if bet.Claimed {
		return 0, domain.ErrAlreadyClaimed
	}

	payout, err := engine.Payout(round, bet)
	if err != nil {
		return 0, fmt.Errorf("claim_service: payout %s/%s: %w", roundID, participant, err)
	}
	if payout == 0 {
		return 0, domain.ErrNoPayout
	}

	// Claimed commits first. A concurrent claim loses here with
	// AlreadyClaimed and no funds have moved yet.
	if err := s.bets.MarkClaimed(ctx, roundID, participant, s.now()); err != nil {
		return 0, fmt.Errorf("claim_service: mark claimed %s/%s: %w", roundID, participant, err)
	}

	if err := s.treasury.Transfer(ctx, s.params.EscrowAccount, participant, payout); err != nil {
		s.logger.ErrorContext(ctx, "release transfer failed after claim committed",
			slog.String("round_id", roundID),
			slog.String("participant", participant),
			slog.Int64("payout", payout),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("claim_service: release %d to %s: %w", payout, participant, err)
	}

	s.logger.InfoContext(ctx, "claim paid",
		slog.String("round_id", roundID),
		slog.String("participant", participant),
		slog.Int64("payout", payout),
	)
	announce(ctx, s.audit, s.bus, s.logger, domain.EventClaimed,
		map[string]any{
			"round_id":    roundID,
			"participant": participant,
			"payout":      payout,
		},
		domain.ClaimedEvent{
			Event:       domain.EventClaimed,
			RoundID:     roundID,
			Participant: participant,
			Payout:      payout,
		})

	return payout, nil
}

// GetBet returns a participant's bet in a round.
func (s *ClaimService) GetBet(ctx context.Context, roundID, participant string) (domain.Bet, error) {
	bet, err := s.bets.Get(ctx, roundID, participant)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("claim_service: get bet %s/%s: %w", roundID, participant, err)
	}
	return bet, nil
}

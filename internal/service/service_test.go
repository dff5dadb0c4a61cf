package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/auth"
	cachemem "github.com/altmarkets/parimutuel/internal/cache/memory"
	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/feed"
	storemem "github.com/altmarkets/parimutuel/internal/store/memory"
	"github.com/altmarkets/parimutuel/internal/treasury"
)

// fixture wires the services over in-memory infrastructure with a manual
// clock. Tests move the clock to cross the close time.
type fixture struct {
	clock time.Time

	params   domain.MarketParams
	rounds   *storemem.RoundStore
	bets     *storemem.BetStore
	audit    *storemem.AuditStore
	treasury *treasury.MemoryTreasury
	feed     *feed.StaticFeed
	bus      *cachemem.SignalBus

	roundSvc  *RoundService
	wagerSvc  *WagerService
	settleSvc *SettlementService
	claimSvc  *ClaimService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{
		clock: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		params: domain.MarketParams{
			Admin:         "admin",
			EscrowAccount: "escrow",
			MinWager:      10,
			MaxWager:      100_000,
			HouseEdgeBps:  500,
		},
		rounds:   storemem.NewRoundStore(),
		bets:     storemem.NewBetStore(),
		audit:    storemem.NewAuditStore(),
		treasury: treasury.NewMemoryTreasury(),
		feed:     feed.NewStaticFeed(map[string]int64{"BTC": 50_000}),
		bus:      cachemem.NewSignalBus(0),
	}
	require.NoError(t, fx.params.Validate())

	logger := slog.New(slog.DiscardHandler)
	cache := cachemem.NewRoundCache(time.Minute)
	locks := cachemem.NewLockManager()
	authz := auth.NewStatic()

	now := func() time.Time { return fx.clock }

	fx.roundSvc = NewRoundService(fx.params, fx.rounds, cache, fx.feed, authz, fx.audit, fx.bus, logger)
	fx.roundSvc.now = now
	fx.wagerSvc = NewWagerService(fx.params, fx.rounds, fx.bets, fx.treasury, cache, locks, authz, fx.audit, fx.bus, logger)
	fx.wagerSvc.now = now
	fx.settleSvc = NewSettlementService(fx.params, fx.rounds, fx.feed, cache, locks, fx.audit, fx.bus, logger)
	fx.settleSvc.now = now
	fx.claimSvc = NewClaimService(fx.params, fx.rounds, fx.bets, fx.treasury, authz, fx.audit, fx.bus, logger)
	fx.claimSvc.now = now

	return fx
}

func (fx *fixture) openRound(t *testing.T, id string) domain.Round {
	t.Helper()
	round, err := fx.roundSvc.OpenRound(context.Background(), id, "BTC", fx.clock.Add(time.Hour))
	require.NoError(t, err)
	return round
}

func (fx *fixture) balance(t *testing.T, account string) int64 {
	t.Helper()
	got, err := fx.treasury.Balance(context.Background(), account)
	require.NoError(t, err)
	return got
}

func TestOpenRound(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	round := fx.openRound(t, "r1")
	assert.Equal(t, "BTC", round.Asset)
	assert.Equal(t, int64(50_000), round.OpenPrice)
	assert.False(t, round.Settled)

	got, err := fx.roundSvc.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, round, got)
}

func TestOpenRound_CloseTimeMustBeFuture(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.roundSvc.OpenRound(ctx, "r1", "BTC", fx.clock)
	assert.ErrorIs(t, err, domain.ErrInvalidCloseTime)

	_, err = fx.roundSvc.OpenRound(ctx, "r1", "BTC", fx.clock.Add(-time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidCloseTime)
}

func TestOpenRound_DuplicateID(t *testing.T) {
	fx := newFixture(t)
	fx.openRound(t, "r1")

	_, err := fx.roundSvc.OpenRound(context.Background(), "r1", "BTC", fx.clock.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrRoundExists)
}

func TestOpenRound_UnknownAsset(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.roundSvc.OpenRound(context.Background(), "r1", "DOGE", fx.clock.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestPlaceWager_ValidationLadder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", "sideways", 100)
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)

	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, -50)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 9)
	assert.ErrorIs(t, err, domain.ErrWagerTooLow)

	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100_001)
	assert.ErrorIs(t, err, domain.ErrWagerTooHigh)

	_, err = fx.wagerSvc.PlaceWager(ctx, "nope", "alice", domain.DirectionUp, 100)
	assert.ErrorIs(t, err, domain.ErrRoundNotFound)

	// Nothing above touched any state.
	assert.Equal(t, int64(1_000_000), fx.balance(t, "alice"))
}

func TestPlaceWager_InsufficientFundsLeavesNoTrace(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 50)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	round, err := fx.rounds.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Zero(t, round.TotalUp)

	_, err = fx.bets.Get(ctx, "r1", "alice")
	assert.ErrorIs(t, err, domain.ErrBetNotFound)
}

func TestPlaceWager_OnePerParticipant(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	require.NoError(t, err)

	// Same side and opposite side both rejected.
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	assert.ErrorIs(t, err, domain.ErrBetExists)
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionDown, 100)
	assert.ErrorIs(t, err, domain.ErrBetExists)

	assert.Equal(t, int64(900), fx.balance(t, "alice"))
}

func TestPlaceWager_ClosedRound(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	fx.clock = fx.clock.Add(time.Hour) // exactly the close time

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	assert.ErrorIs(t, err, domain.ErrRoundClosed)
}

// A 300-up / 500-down round at 500 bps: the pool of 800 yields a 40 fee and
// a 760 net pool. The sole up winner takes all of it.
func TestLifecycle_UpWins(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)
	fx.treasury.SetBalance("bob", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 300)
	require.NoError(t, err)
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "bob", domain.DirectionDown, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(800), fx.balance(t, "escrow"))

	fx.clock = fx.clock.Add(2 * time.Hour)
	fx.feed.SetPrice("BTC", 51_000)

	round, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUp, round.Outcome)
	assert.False(t, round.IsPush)
	assert.Equal(t, int64(760), round.NetPool)
	assert.Equal(t, int64(300), round.WinningTotal)

	payout, err := fx.claimSvc.Claim(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(760), payout)
	assert.Equal(t, int64(1_460), fx.balance(t, "alice"))

	// The loser has nothing to claim.
	_, err = fx.claimSvc.Claim(ctx, "r1", "bob")
	assert.ErrorIs(t, err, domain.ErrNoPayout)
	assert.Equal(t, int64(500), fx.balance(t, "bob"))

	// The fee stays behind in escrow.
	assert.Equal(t, int64(40), fx.balance(t, "escrow"))

	// Claiming twice never pays twice.
	_, err = fx.claimSvc.Claim(ctx, "r1", "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Equal(t, int64(1_460), fx.balance(t, "alice"))
}

// Two up winners split the net pool in proportion to their wagers.
func TestLifecycle_ProportionalSplit(t *testing.T) {
	fx := newFixture(t)
	fx.params.HouseEdgeBps = 0
	fx.settleSvc.params = fx.params
	ctx := context.Background()
	fx.openRound(t, "r1")
	for _, p := range []string{"alice", "bob", "carol"} {
		fx.treasury.SetBalance(p, 1_000)
	}

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 300)
	require.NoError(t, err)
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "bob", domain.DirectionUp, 200)
	require.NoError(t, err)
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "carol", domain.DirectionDown, 450)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	fx.feed.SetPrice("BTC", 50_001)

	_, err = fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)

	alicePayout, err := fx.claimSvc.Claim(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(570), alicePayout) // 950 * 300 / 500

	bobPayout, err := fx.claimSvc.Claim(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(380), bobPayout) // 950 * 200 / 500

	_, err = fx.claimSvc.Claim(ctx, "r1", "carol")
	assert.ErrorIs(t, err, domain.ErrNoPayout)

	// The whole pool was paid out, nothing stranded.
	assert.Zero(t, fx.balance(t, "escrow"))
}

func TestLifecycle_FlatPushRefundsEveryone(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)
	fx.treasury.SetBalance("bob", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 300)
	require.NoError(t, err)
	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "bob", domain.DirectionDown, 500)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	// Close price equals open price.

	round, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, round.IsPush)
	assert.Equal(t, domain.OutcomeFlat, round.Outcome)

	// Full refunds, no fee taken on a push.
	payout, err := fx.claimSvc.Claim(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(300), payout)

	payout, err = fx.claimSvc.Claim(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(500), payout)

	assert.Equal(t, int64(1_000), fx.balance(t, "alice"))
	assert.Equal(t, int64(1_000), fx.balance(t, "bob"))
	assert.Zero(t, fx.balance(t, "escrow"))
}

func TestLifecycle_OneSidedPush(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 300)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	fx.feed.SetPrice("BTC", 60_000) // alice's side even "wins"

	round, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, round.IsPush)

	// Refund, not a fee-trimmed payout.
	payout, err := fx.claimSvc.Claim(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(300), payout)
	assert.Equal(t, int64(1_000), fx.balance(t, "alice"))
}

func TestSettleRound_EmptyRoundIsPush(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")

	fx.clock = fx.clock.Add(2 * time.Hour)

	round, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, round.IsPush)
	assert.Zero(t, round.NetPool)
}

// rawQuoteFeed returns a fixed quote without any sanity checks, standing in
// for an oracle that has gone bad.
type rawQuoteFeed struct{ price int64 }

func (f rawQuoteFeed) GetPrice(context.Context, string) (int64, error) { return f.price, nil }

func TestSettleRound_NonPositiveQuoteRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.clock = fx.clock.Add(2 * time.Hour)

	logger := slog.New(slog.DiscardHandler)
	bad := NewSettlementService(fx.params, fx.rounds, rawQuoteFeed{price: 0},
		cachemem.NewRoundCache(time.Minute), cachemem.NewLockManager(), fx.audit, fx.bus, logger)
	bad.now = func() time.Time { return fx.clock }

	_, err := bad.SettleRound(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	// The round stays open; the next crank settles once the oracle recovers.
	round, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, round.Settled)
}

func TestSettleRound_BeforeClose(t *testing.T) {
	fx := newFixture(t)
	fx.openRound(t, "r1")

	_, err := fx.settleSvc.SettleRound(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrRoundNotClosed)
}

func TestSettleRound_Twice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")

	fx.clock = fx.clock.Add(2 * time.Hour)

	_, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	_, err = fx.settleSvc.SettleRound(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestPlaceWager_AfterSettle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	fx.clock = fx.clock.Add(2 * time.Hour)
	_, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)

	_, err = fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestClaim_BeforeSettle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	require.NoError(t, err)

	_, err = fx.claimSvc.Claim(ctx, "r1", "alice")
	assert.ErrorIs(t, err, domain.ErrNotSettled)
}

func TestClaim_NoBet(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")

	fx.clock = fx.clock.Add(2 * time.Hour)
	_, err := fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)

	_, err = fx.claimSvc.Claim(ctx, "r1", "ghost")
	assert.ErrorIs(t, err, domain.ErrBetNotFound)
}

func TestEventsAndAuditTrail(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.openRound(t, "r1")
	fx.treasury.SetBalance("alice", 1_000)

	_, err := fx.wagerSvc.PlaceWager(ctx, "r1", "alice", domain.DirectionUp, 100)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	_, err = fx.settleSvc.SettleRound(ctx, "r1")
	require.NoError(t, err)
	_, err = fx.claimSvc.Claim(ctx, "r1", "alice")
	require.NoError(t, err)

	entries, err := fx.audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	var events []string
	for _, e := range entries {
		events = append(events, e.Event)
	}
	// Newest first.
	assert.Equal(t, []string{
		domain.EventClaimed,
		domain.EventRoundSettled,
		domain.EventWagerPlaced,
		domain.EventMarketOpened,
	}, events)

	msgs, err := fx.bus.StreamRead(ctx, domain.EventStream, "0", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

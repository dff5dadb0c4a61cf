package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/auth"
	cachemem "github.com/altmarkets/parimutuel/internal/cache/memory"
	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/feed"
	"github.com/altmarkets/parimutuel/internal/service"
	storemem "github.com/altmarkets/parimutuel/internal/store/memory"
	"github.com/altmarkets/parimutuel/internal/treasury"
)

// newTestAPI wires the handlers over in-memory infrastructure and returns a
// test server plus the treasury for balance setup.
func newTestAPI(t *testing.T) (*httptest.Server, *treasury.MemoryTreasury) {
	t.Helper()

	params := domain.MarketParams{
		Admin:         "admin",
		EscrowAccount: "escrow",
		MinWager:      10,
		MaxWager:      100_000,
		HouseEdgeBps:  500,
	}
	require.NoError(t, params.Validate())

	logger := slog.New(slog.DiscardHandler)
	rounds := storemem.NewRoundStore()
	bets := storemem.NewBetStore()
	audit := storemem.NewAuditStore()
	tr := treasury.NewMemoryTreasury()
	cache := cachemem.NewRoundCache(time.Minute)
	locks := cachemem.NewLockManager()
	bus := cachemem.NewSignalBus(0)
	authz := auth.NewStatic()
	priceFeed := feed.NewStaticFeed(map[string]int64{"BTC": 50_000})

	roundSvc := service.NewRoundService(params, rounds, cache, priceFeed, authz, audit, bus, logger)
	wagerSvc := service.NewWagerService(params, rounds, bets, tr, cache, locks, authz, audit, bus, logger)
	settleSvc := service.NewSettlementService(params, rounds, priceFeed, cache, locks, audit, bus, logger)
	claimSvc := service.NewClaimService(params, rounds, bets, tr, authz, audit, bus, logger)

	mux := http.NewServeMux()
	roundH := NewRoundHandler(roundSvc, settleSvc, logger)
	wagerH := NewWagerHandler(wagerSvc, claimSvc, bets, logger)
	claimH := NewClaimHandler(claimSvc, logger)
	accountH := NewAccountHandler(tr, tr, logger)
	auditH := NewAuditHandler(audit, bus, logger)

	mux.HandleFunc("POST /api/rounds", roundH.OpenRound)
	mux.HandleFunc("GET /api/rounds/{id}", roundH.GetRound)
	mux.HandleFunc("POST /api/rounds/{id}/settle", roundH.SettleRound)
	mux.HandleFunc("POST /api/rounds/{id}/wagers", wagerH.PlaceWager)
	mux.HandleFunc("GET /api/rounds/{id}/wagers", wagerH.ListWagers)
	mux.HandleFunc("GET /api/rounds/{id}/wagers/{participant}", wagerH.GetWager)
	mux.HandleFunc("POST /api/rounds/{id}/claims", claimH.Claim)
	mux.HandleFunc("GET /api/accounts/{account}", accountH.GetBalance)
	mux.HandleFunc("POST /api/accounts/{account}/deposits", accountH.Deposit)
	mux.HandleFunc("GET /api/audit", auditH.ListAudit)
	mux.HandleFunc("GET /api/events", auditH.ListEvents)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, tr
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAPI_RoundLifecycle(t *testing.T) {
	srv, tr := newTestAPI(t)
	tr.SetBalance("alice", 1_000)

	// Open a round.
	resp := postJSON(t, srv.URL+"/api/rounds", map[string]any{
		"id":         "r1",
		"asset":      "BTC",
		"close_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	round := decode[domain.Round](t, resp)
	assert.Equal(t, int64(50_000), round.OpenPrice)

	// Opening the same ID again conflicts.
	resp = postJSON(t, srv.URL+"/api/rounds", map[string]any{
		"id":         "r1",
		"asset":      "BTC",
		"close_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Place a wager.
	resp = postJSON(t, srv.URL+"/api/rounds/r1/wagers", map[string]any{
		"participant": "alice",
		"direction":   "up",
		"amount":      300,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bet := decode[domain.Bet](t, resp)
	assert.Equal(t, domain.DirectionUp, bet.Direction)

	// Round totals reflect the escrowed wager.
	resp, err := http.Get(srv.URL + "/api/rounds/r1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	round = decode[domain.Round](t, resp)
	assert.Equal(t, int64(300), round.TotalUp)

	// The wager shows up in lookups.
	resp, err = http.Get(srv.URL + "/api/rounds/r1/wagers/alice")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/rounds/r1/wagers")
	require.NoError(t, err)
	bets := decode[[]domain.Bet](t, resp)
	assert.Len(t, bets, 1)

	// Escrow holds the funds.
	resp, err = http.Get(srv.URL + "/api/accounts/escrow")
	require.NoError(t, err)
	balance := decode[map[string]any](t, resp)
	assert.Equal(t, float64(300), balance["balance"])

	// Settling before the close time conflicts.
	resp = postJSON(t, srv.URL+"/api/rounds/r1/settle", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Claiming before settlement conflicts.
	resp = postJSON(t, srv.URL+"/api/rounds/r1/claims", map[string]any{"participant": "alice"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ErrorMapping(t *testing.T) {
	srv, tr := newTestAPI(t)
	tr.SetBalance("alice", 5)

	// Unknown round is a 404.
	resp, err := http.Get(srv.URL + "/api/rounds/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Past close time is a 400.
	resp = postJSON(t, srv.URL+"/api/rounds", map[string]any{
		"id":         "r1",
		"asset":      "BTC",
		"close_time": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/rounds", map[string]any{
		"id":         "r1",
		"asset":      "BTC",
		"close_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Bad direction is a 400.
	resp = postJSON(t, srv.URL+"/api/rounds/r1/wagers", map[string]any{
		"participant": "alice",
		"direction":   "sideways",
		"amount":      100,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Insufficient funds is a 402.
	resp = postJSON(t, srv.URL+"/api/rounds/r1/wagers", map[string]any{
		"participant": "alice",
		"direction":   "up",
		"amount":      100,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	// Unknown account is a 404.
	resp, err = http.Get(srv.URL + "/api/accounts/ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DepositAndAudit(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/api/accounts/alice/deposits", map[string]any{"amount": 500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decode[map[string]any](t, resp)
	assert.Equal(t, float64(500), balance["balance"])

	resp = postJSON(t, srv.URL+"/api/rounds", map[string]any{
		"id":         "r1",
		"asset":      "BTC",
		"close_time": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The audit trail and event stream both carry the open.
	resp, err := http.Get(srv.URL + "/api/audit")
	require.NoError(t, err)
	entries := decode[[]domain.AuditEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventMarketOpened, entries[0].Event)

	resp, err = http.Get(fmt.Sprintf("%s/api/events?after=0", srv.URL))
	require.NoError(t, err)
	events := decode[[]map[string]any](t, resp)
	assert.Len(t, events, 1)
}

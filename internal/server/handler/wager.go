package handler

import (
	"log/slog"
	"net/http"

	"github.com/altmarkets/parimutuel/internal/domain"
	"github.com/altmarkets/parimutuel/internal/service"
)

// WagerHandler serves wager placement and lookup endpoints.
type WagerHandler struct {
	wagers *service.WagerService
	claims *service.ClaimService
	bets   domain.BetStore
	logger *slog.Logger
}

// NewWagerHandler creates a WagerHandler.
func NewWagerHandler(wagers *service.WagerService, claims *service.ClaimService, bets domain.BetStore, logger *slog.Logger) *WagerHandler {
	return &WagerHandler{
		wagers: wagers,
		claims: claims,
		bets:   bets,
		logger: logger.With(slog.String("handler", "wager")),
	}
}

type placeWagerRequest struct {
	Participant string `json:"participant"`
	Direction   string `json:"direction"`
	Amount      int64  `json:"amount"`
}

// PlaceWager escrows a wager into a round.
// POST /api/rounds/{id}/wagers
func (h *WagerHandler) PlaceWager(w http.ResponseWriter, r *http.Request) {
	var req placeWagerRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Participant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "participant is required"})
		return
	}

	bet, err := h.wagers.PlaceWager(r.Context(), r.PathValue("id"), req.Participant, domain.Direction(req.Direction), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

// GetWager returns one participant's bet in a round.
// GET /api/rounds/{id}/wagers/{participant}
func (h *WagerHandler) GetWager(w http.ResponseWriter, r *http.Request) {
	bet, err := h.claims.GetBet(r.Context(), r.PathValue("id"), r.PathValue("participant"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// ListWagers returns all bets in a round.
// GET /api/rounds/{id}/wagers
func (h *WagerHandler) ListWagers(w http.ResponseWriter, r *http.Request) {
	bets, err := h.bets.ListByRound(r.Context(), r.PathValue("id"), parseListOpts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if bets == nil {
		bets = []domain.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

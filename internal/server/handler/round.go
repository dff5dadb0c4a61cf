package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/altmarkets/parimutuel/internal/service"
)

// RoundHandler serves round lifecycle endpoints.
type RoundHandler struct {
	rounds     *service.RoundService
	settlement *service.SettlementService
	logger     *slog.Logger
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(rounds *service.RoundService, settlement *service.SettlementService, logger *slog.Logger) *RoundHandler {
	return &RoundHandler{
		rounds:     rounds,
		settlement: settlement,
		logger:     logger.With(slog.String("handler", "round")),
	}
}

type openRoundRequest struct {
	ID        string    `json:"id"`
	Asset     string    `json:"asset"`
	CloseTime time.Time `json:"close_time"`
}

// OpenRound creates a new round.
// POST /api/rounds
func (h *RoundHandler) OpenRound(w http.ResponseWriter, r *http.Request) {
	var req openRoundRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ID == "" || req.Asset == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and asset are required"})
		return
	}

	round, err := h.rounds.OpenRound(r.Context(), req.ID, req.Asset, req.CloseTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// GetRound returns a round by ID.
// GET /api/rounds/{id}
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.GetRound(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// SettleRound settles a closed round against the current feed price.
// POST /api/rounds/{id}/settle
func (h *RoundHandler) SettleRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.settlement.SettleRound(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/altmarkets/parimutuel/internal/service"
)

// ClaimHandler serves payout claim endpoints.
type ClaimHandler struct {
	claims *service.ClaimService
	logger *slog.Logger
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(claims *service.ClaimService, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{
		claims: claims,
		logger: logger.With(slog.String("handler", "claim")),
	}
}

type claimRequest struct {
	Participant string `json:"participant"`
}

type claimResponse struct {
	RoundID     string `json:"round_id"`
	Participant string `json:"participant"`
	Payout      int64  `json:"payout"`
}

// Claim releases a participant's payout or push refund.
// POST /api/rounds/{id}/claims
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Participant == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "participant is required"})
		return
	}

	roundID := r.PathValue("id")
	payout, err := h.claims.Claim(r.Context(), roundID, req.Participant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		RoundID:     roundID,
		Participant: req.Participant,
		Payout:      payout,
	})
}

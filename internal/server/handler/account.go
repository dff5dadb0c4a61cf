package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// Depositor credits accounts directly. Both treasury implementations
// provide it; the market core itself never deposits.
type Depositor interface {
	Deposit(ctx context.Context, account string, amount int64) error
}

// AccountHandler serves treasury account endpoints.
type AccountHandler struct {
	treasury  domain.Treasury
	depositor Depositor
	logger    *slog.Logger
}

// NewAccountHandler creates an AccountHandler. depositor may be nil to
// disable the deposit endpoint.
func NewAccountHandler(treasury domain.Treasury, depositor Depositor, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		treasury:  treasury,
		depositor: depositor,
		logger:    logger.With(slog.String("handler", "account")),
	}
}

// GetBalance returns an account's balance.
// GET /api/accounts/{account}
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	balance, err := h.treasury.Balance(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"balance": balance,
	})
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit credits an account. Operational endpoint, protected by the API
// key like every other route.
// POST /api/accounts/{account}/deposits
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if h.depositor == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "deposits disabled"})
		return
	}

	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	account := r.PathValue("account")
	if err := h.depositor.Deposit(r.Context(), account, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.treasury.Balance(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"balance": balance,
	})
}

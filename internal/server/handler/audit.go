package handler

import (
	"log/slog"
	"net/http"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// AuditHandler serves the audit trail and the durable event stream.
type AuditHandler struct {
	audit  domain.AuditStore
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit domain.AuditStore, bus domain.SignalBus, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		bus:    bus,
		logger: logger.With(slog.String("handler", "audit")),
	}
}

// ListAudit returns audit log entries, newest first.
// GET /api/audit
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListEvents reads market events from the durable stream, oldest first.
// Clients pass the last ID they saw via ?after= to page forward.
// GET /api/events
func (h *AuditHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")
	if after == "" {
		after = "0"
	}
	opts := parseListOpts(r)

	msgs, err := h.bus.StreamRead(r.Context(), domain.EventStream, after, opts.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type event struct {
		ID      string `json:"id"`
		Payload any    `json:"payload"`
	}
	out := make([]event, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, event{ID: msg.ID, Payload: jsonRaw(msg.Payload)})
	}
	writeJSON(w, http.StatusOK, out)
}

// jsonRaw passes already-serialized JSON through writeJSON unreencoded.
type jsonRaw []byte

func (r jsonRaw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

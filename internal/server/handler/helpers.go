// Package handler implements the HTTP API handlers for the market.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response with the status mapped
// from the domain error.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps domain errors onto HTTP status codes. Unrecognized
// errors become 500s.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrBetNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoundExists),
		errors.Is(err, domain.ErrBetExists),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrRoundClosed),
		errors.Is(err, domain.ErrRoundNotClosed),
		errors.Is(err, domain.ErrNotSettled),
		errors.Is(err, domain.ErrNoPayout),
		errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrWagerTooLow),
		errors.Is(err, domain.ErrWagerTooHigh),
		errors.Is(err, domain.ErrInvalidCloseTime),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// decodeBody decodes a JSON request body into dst, limited to 1 MiB.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

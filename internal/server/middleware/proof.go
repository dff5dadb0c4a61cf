package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/altmarkets/parimutuel/internal/auth"
)

// Proof headers carried on mutating requests. The signature binds the
// timestamp to the identity the request acts for; the service layer
// verifies it against the keyring.
const (
	HeaderAuthTimestamp = "X-Auth-Timestamp"
	HeaderAuthSignature = "X-Auth-Signature"
)

// Proof returns middleware that lifts the proof headers into the request
// context. Requests without proof headers pass through untouched; the
// service layer rejects them when a proof is actually required.
func Proof() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tsHeader := strings.TrimSpace(r.Header.Get(HeaderAuthTimestamp))
			sig := strings.TrimSpace(r.Header.Get(HeaderAuthSignature))
			if tsHeader == "" || sig == "" {
				next.ServeHTTP(w, r)
				return
			}

			ts, err := strconv.ParseInt(tsHeader, 10, 64)
			if err != nil {
				// A malformed timestamp can never verify; drop the proof and
				// let the service reject the call.
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithProof(r.Context(), auth.Proof{Timestamp: ts, Signature: sig})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

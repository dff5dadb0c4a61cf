// Package auth implements identity authorization for market mutations. Each
// mutating request carries a proof (timestamp plus HMAC signature) bound to
// the identity it acts for; the service layer checks the proof before
// touching any state.
package auth

import "context"

// Proof is the authorization evidence a caller attaches to a request. The
// signature covers the timestamp and the identity, so a proof cannot be
// replayed for another participant or reused outside the skew window.
type Proof struct {
	Timestamp int64  // unix seconds at signing time
	Signature string // base64 HMAC-SHA256 of "{timestamp}\n{identity}"
}

type proofCtxKey struct{}

// WithProof attaches a proof to the context for the service layer to verify.
func WithProof(ctx context.Context, proof Proof) context.Context {
	return context.WithValue(ctx, proofCtxKey{}, proof)
}

// ProofFromContext extracts the proof attached by WithProof.
func ProofFromContext(ctx context.Context) (Proof, bool) {
	proof, ok := ctx.Value(proofCtxKey{}).(Proof)
	return proof, ok
}

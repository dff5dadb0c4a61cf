package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// testKeyring uses explicit secrets so tests skip the PBKDF2 derivation.
func testKeyring() *Keyring {
	return NewKeyring("master", map[string]string{
		"alice": "alice-secret",
		"admin": "admin-secret",
	})
}

func fixedAuthorizer(t *testing.T, at time.Time) *HMACAuthorizer {
	t.Helper()
	a := NewHMACAuthorizer(testKeyring(), time.Minute)
	a.now = func() time.Time { return at }
	return a
}

func TestHMACAuthorizer_ValidProof(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := fixedAuthorizer(t, now)

	proof := Proof{
		Timestamp: now.Unix(),
		Signature: Sign([]byte("alice-secret"), now.Unix(), "alice"),
	}
	ctx := WithProof(context.Background(), proof)

	require.NoError(t, a.RequireAuthorized(ctx, "alice"))
}

func TestHMACAuthorizer_MissingProof(t *testing.T) {
	a := fixedAuthorizer(t, time.Now())
	err := a.RequireAuthorized(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestHMACAuthorizer_WrongIdentity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := fixedAuthorizer(t, now)

	// A proof signed for alice must not authorize bob.
	proof := Proof{
		Timestamp: now.Unix(),
		Signature: Sign([]byte("alice-secret"), now.Unix(), "alice"),
	}
	ctx := WithProof(context.Background(), proof)

	err := a.RequireAuthorized(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestHMACAuthorizer_StaleProof(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := fixedAuthorizer(t, now)

	old := now.Add(-2 * time.Minute).Unix()
	proof := Proof{
		Timestamp: old,
		Signature: Sign([]byte("alice-secret"), old, "alice"),
	}
	ctx := WithProof(context.Background(), proof)

	err := a.RequireAuthorized(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestHMACAuthorizer_TamperedSignature(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := fixedAuthorizer(t, now)

	proof := Proof{
		Timestamp: now.Unix(),
		Signature: "bm90IGEgcmVhbCBzaWduYXR1cmU=",
	}
	ctx := WithProof(context.Background(), proof)

	err := a.RequireAuthorized(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestKeyring_ExplicitOverridesDerived(t *testing.T) {
	k := testKeyring()
	assert.Equal(t, []byte("alice-secret"), k.SecretFor("alice"))

	// Derived secrets are stable per identity and distinct across identities.
	d1 := k.SecretFor("carol")
	d2 := k.SecretFor("carol")
	d3 := k.SecretFor("dave")
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 32)
}

func TestStatic_AllowsEveryone(t *testing.T) {
	a := NewStatic()
	require.NoError(t, a.RequireAuthorized(context.Background(), "anyone"))
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_IssueVerify(t *testing.T) {
	v := NewJWTVerifier(DefaultJWTConfig("secret"))

	in := Principal{UserID: "u1", Email: "a@b.c", Name: "Ann", Role: "care_manager", TenantID: "t1"}
	token, exp, err := v.Issue(in, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	out, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(DefaultJWTConfig("secret"))
	other := NewJWTVerifier(DefaultJWTConfig("other-secret"))
	foreign := NewJWTVerifier(JWTConfig{Secret: "secret", Issuer: "someone-else", TokenTTL: time.Minute})

	// Issue treats a non-positive ttl as "use the default", so expired tokens are built by hand.
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "carehub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "u1",
		Role:   "patient",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	wrongKey, _, err := other.Issue(Principal{UserID: "u1", Role: "patient"}, time.Minute)
	require.NoError(t, err)

	wrongIssuer, _, err := foreign.Issue(Principal{UserID: "u1", Role: "patient"}, time.Minute)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Role: "super_admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"alg none":     noneAlg,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

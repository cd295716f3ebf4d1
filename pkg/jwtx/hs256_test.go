package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "checkpoint-test"

var testSecret = []byte("test-secret-please-rotate")

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer := NewSigner(testSecret, testIssuer)
	verifier := NewVerifier(testSecret, testIssuer)

	now := time.Now().UTC()
	token, err := signer.Sign(NewAccessClaims("user-123", testIssuer, DefaultAccessTokenTTL, now))
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, testIssuer, claims.Issuer)
	require.WithinDuration(t, now.Add(DefaultAccessTokenTTL), claims.ExpiresAt.Time, time.Second)
}

func TestVerifyFailsUniformly(t *testing.T) {
	t.Parallel()

	signer := NewSigner(testSecret, testIssuer)
	verifier := NewVerifier(testSecret, testIssuer)
	now := time.Now().UTC()

	t.Run("malformed", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidToken)

		_, err = verifier.Verify("")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := signer.Sign(NewAccessClaims("user-123", testIssuer, -time.Minute, now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSigner([]byte("some-other-secret"), testIssuer)
		token, err := other.Sign(NewAccessClaims("user-123", testIssuer, time.Minute, now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := signer.Sign(NewAccessClaims("user-123", "someone-else", time.Minute, now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := signer.Sign(NewAccessClaims("", testIssuer, time.Minute, now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

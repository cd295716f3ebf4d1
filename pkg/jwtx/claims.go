package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	// DefaultAccessTokenTTL is the lifetime of a bearer access token.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultSessionTTL is the lifetime of an opaque session token. These
	// are store-backed and revocable, so they can afford to live longer.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims. Bearer tokens are deliberately thin:
// they carry the subject (user id) and the standard time claims, nothing
// else. Anything mutable lives in the store and is loaded per request.
type Claims struct {
	jwt.RegisteredClaims
}

// NewAccessClaims builds minimally-correct claims for a bearer token.
func NewAccessClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
	}
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

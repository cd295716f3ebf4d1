package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single error surfaced for any bearer verification
// failure. Malformed, expired, wrong-algorithm and bad-signature tokens are
// indistinguishable to callers so the endpoint cannot be used as an oracle.
var ErrInvalidToken = errors.New("jwtx: invalid token")

// Signer signs bearer tokens with a fixed HS256 server-held secret.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner creates an HS256 signer. The secret must be kept server-side;
// anyone holding it can mint valid tokens.
func NewSigner(secret []byte, issuer string) *Signer {
	return &Signer{secret: secret, issuer: issuer}
}

// Issuer returns the configured issuer claim value.
func (s *Signer) Issuer() string { return s.issuer }

// Sign produces a compact JWS for the given claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verifier validates bearer tokens issued by the matching Signer.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a verifier bound to the same secret and issuer as the
// signer.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Verify parses and validates a compact token string. Signature, expiry,
// not-before and issuer are all enforced; any failure collapses into
// ErrInvalidToken.
func (v *Verifier) Verify(token string) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

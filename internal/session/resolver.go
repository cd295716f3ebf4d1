// Package session resolves the caller behind a request. One resolver serves
// every authenticated endpoint; which credential kinds it accepts is decided
// at construction, not per handler.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/pkg/cryptox"
	"github.com/checkpointhq/checkpoint/pkg/idx"
	"github.com/checkpointhq/checkpoint/pkg/jwtx"
)

// CookieName is the opaque session cookie.
const CookieName = "session_token"

// ErrUnauthenticated is the only failure Resolve reports. Which credential
// was missing or bad is deliberately not surfaced.
var ErrUnauthenticated = errors.New("session: not authenticated")

// Mode names a credential kind the resolver will accept.
type Mode string

const (
	// ModeCookie accepts the opaque session cookie, looked up in the store.
	ModeCookie Mode = "cookie"

	// ModeBearer accepts a signed bearer token in the Authorization header.
	ModeBearer Mode = "bearer"
)

type Resolver struct {
	store    store.Store
	verifier *jwtx.Verifier

	cookieEnabled bool
	bearerEnabled bool

	now func() time.Time
}

// NewResolver builds a resolver accepting the given modes. Credential order
// is fixed regardless of the order modes are listed: cookie first, then
// bearer.
func NewResolver(st store.Store, verifier *jwtx.Verifier, modes ...Mode) (*Resolver, error) {
	r := &Resolver{store: st, verifier: verifier, now: time.Now}

	for _, m := range modes {
		switch m {
		case ModeCookie:
			r.cookieEnabled = true
		case ModeBearer:
			r.bearerEnabled = true
		default:
			return nil, fmt.Errorf("session: unknown mode %q", m)
		}
	}
	if !r.cookieEnabled && !r.bearerEnabled {
		return nil, errors.New("session: at least one mode is required")
	}
	return r, nil
}

// Resolve identifies the caller. A present but expired cookie session is
// revoked in the store and does not block a valid bearer token behind it.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*domain.User, error) {
	if r.cookieEnabled {
		if u, err := r.resolveCookie(ctx, req); err == nil {
			return u, nil
		} else if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}

	if r.bearerEnabled {
		if u, err := r.resolveBearer(ctx, req); err == nil {
			return u, nil
		} else if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}

	return nil, ErrUnauthenticated
}

func (r *Resolver) resolveCookie(ctx context.Context, req *http.Request) (*domain.User, error) {
	c, err := req.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrUnauthenticated
	}

	fp := cryptox.FingerprintToken(c.Value)
	u, err := r.store.Users().GetBySessionFingerprint(ctx, fp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	if !u.SessionValid(r.now()) {
		// Dead sessions are garbage; collect on sight.
		if err := r.store.Users().ClearSessionByFingerprint(ctx, fp); err != nil {
			return nil, fmt.Errorf("clear expired session: %w", err)
		}
		return nil, ErrUnauthenticated
	}

	if !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

func (r *Resolver) resolveBearer(ctx context.Context, req *http.Request) (*domain.User, error) {
	// Clients occasionally send more than one Authorization header; any one
	// valid token is enough.
	for _, header := range req.Header.Values("Authorization") {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			continue
		}

		claims, err := r.verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			continue
		}

		id, err := idx.Parse(claims.Subject)
		if err != nil {
			continue
		}

		u, err := r.store.Users().GetByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("user lookup: %w", err)
		}
		if !u.IsActive {
			continue
		}
		return u, nil
	}

	return nil, ErrUnauthenticated
}

package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

type ctxKey struct{}

// UserFromContext returns the resolved caller, if the request passed through
// Require.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok
}

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// Require rejects unauthenticated requests with a 401 and otherwise injects
// the caller into the request context.
func (r *Resolver) Require() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			u, err := r.Resolve(req.Context(), req)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					slogx.FromContext(req.Context()).Error("session_resolve_failed", "error", err)
					httpx.ServerError().WriteError(w)
					return
				}
				httpx.AuthenticationError("Not authenticated").WriteError(w)
				return
			}

			ctx := withUser(req.Context(), u)
			ctx = httpx.WithUserID(ctx, string(u.ID))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

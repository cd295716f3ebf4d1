package api

import (
	"net/http"

	"github.com/checkpointhq/checkpoint/pkg/httpx"
)

// Router assembles the full API surface. Rate limit profiles follow the
// sensitivity of each endpoint: credential endpoints are strict and keyed by
// IP, authenticated endpoints are keyed by user.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	strict := httpx.RateLimitByIP(httpx.RateLimitStrict.WithEnvOverride("STRICT"))
	moderate := httpx.RateLimitByUser(httpx.RateLimitModerate.WithEnvOverride("MODERATE"))
	lenient := httpx.RateLimitByUser(httpx.RateLimitLenient.WithEnvOverride("LENIENT"))
	public := httpx.RateLimitByIP(httpx.RateLimitPublic.WithEnvOverride("PUBLIC"))
	authed := h.resolver.Require()

	mux.Handle("POST /api/auth/register", httpx.Chain(http.HandlerFunc(h.handleRegister), strict))
	mux.Handle("POST /api/auth/login", httpx.Chain(http.HandlerFunc(h.handleLogin), strict))
	mux.Handle("POST /api/auth/logout", httpx.Chain(http.HandlerFunc(h.handleLogout), lenient))
	mux.Handle("GET /api/auth/me", httpx.Chain(http.HandlerFunc(h.handleMe), authed, lenient))

	mux.Handle("POST /api/auth/verify-email", httpx.Chain(http.HandlerFunc(h.handleVerifyEmail), strict))
	mux.Handle("POST /api/auth/resend-verification", httpx.Chain(http.HandlerFunc(h.handleResendVerification), strict))
	mux.Handle("POST /api/auth/forgot-password", httpx.Chain(http.HandlerFunc(h.handleForgotPassword), strict))
	mux.Handle("POST /api/auth/reset-password", httpx.Chain(http.HandlerFunc(h.handleResetPassword), strict))

	mux.Handle("GET /api/auth/google", httpx.Chain(http.HandlerFunc(h.handleOAuthRedirect), public))
	mux.Handle("POST /api/auth/google/callback", httpx.Chain(http.HandlerFunc(h.handleOAuthCallback), strict))

	mux.Handle("POST /api/status", httpx.Chain(http.HandlerFunc(h.handleStatusReport), authed, lenient))
	mux.Handle("GET /api/status", httpx.Chain(http.HandlerFunc(h.handleStatusList), authed, lenient))

	mux.Handle("POST /api/vault/files", httpx.Chain(http.HandlerFunc(h.handleVaultUpload), authed, moderate))
	mux.Handle("GET /api/vault/files", httpx.Chain(http.HandlerFunc(h.handleVaultList), authed, lenient))
	mux.Handle("GET /api/vault/download", httpx.Chain(http.HandlerFunc(h.handleVaultDownload), authed, lenient))
	mux.Handle("DELETE /api/vault/files", httpx.Chain(http.HandlerFunc(h.handleVaultDelete), authed, moderate))
	mux.Handle("GET /api/vault/storage/summary", httpx.Chain(http.HandlerFunc(h.handleVaultStorageSummary), authed, lenient))

	mux.Handle("GET /api/health", http.HandlerFunc(h.handleHealth))

	return mux
}

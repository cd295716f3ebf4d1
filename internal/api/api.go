// Package api is the HTTP surface: routing, request decoding, response
// shaping. All behaviour lives in the services it delegates to.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/service"
	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/internal/vault"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// VaultStore is the slice of the object store the handlers need.
type VaultStore interface {
	Upload(ctx context.Context, userID idx.ID, dt vault.DataType, category, filename, contentType string, body io.Reader, size int64) (*vault.UploadInfo, error)
	Download(ctx context.Context, userID idx.ID, dt vault.DataType, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, userID idx.ID, dt vault.DataType, key string) error
	List(ctx context.Context, userID idx.ID, dt vault.DataType, category string, limit int) ([]domain.FileInfo, error)
	StorageSummary(ctx context.Context, userID idx.ID) (*domain.StorageSummary, error)
}

type Handler struct {
	accounts *service.AccountService
	oauth    *service.OAuthService
	status   *service.StatusService
	vault    VaultStore
	resolver *session.Resolver

	// providerAuthURL is where GET /api/auth/google sends the browser.
	providerAuthURL string

	// secureCookies is disabled only in local development; SameSite=None
	// cookies are rejected by browsers without the Secure attribute.
	secureCookies bool
}

func NewHandler(
	accounts *service.AccountService,
	oauth *service.OAuthService,
	status *service.StatusService,
	vaultStore VaultStore,
	resolver *session.Resolver,
	providerAuthURL string,
	secureCookies bool,
) *Handler {
	return &Handler{
		accounts:        accounts,
		oauth:           oauth,
		status:          status,
		vault:           vaultStore,
		resolver:        resolver,
		providerAuthURL: providerAuthURL,
		secureCookies:   secureCookies,
	}
}

// setSessionCookie installs the opaque session cookie. SameSite=None because
// the browser frontend is served from a different origin than the API.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteNoneMode,
	})
}

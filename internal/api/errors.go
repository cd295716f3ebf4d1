package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/checkpointhq/checkpoint/internal/service"
	"github.com/checkpointhq/checkpoint/internal/vault"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

// writeServiceError maps service and vault sentinels onto the wire error
// taxonomy. Client-facing messages are fixed strings the frontends match on.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *httpx.Error

	switch {
	case errors.Is(err, service.ErrInvalidDateFormat):
		apiErr = httpx.ValidationError("Invalid date format. Use YYYY-MM-DD")
	case errors.Is(err, service.ErrUnderage):
		apiErr = httpx.ValidationError("Must be 18 or older to register")
	case errors.Is(err, service.ErrPasswordTooShort):
		apiErr = httpx.ValidationError("Password must be at least 8 characters")
	case errors.Is(err, service.ErrEmailTaken):
		apiErr = httpx.ConflictError("Email already registered")
	case errors.Is(err, service.ErrUsernameTaken):
		apiErr = httpx.ConflictError("Username already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = httpx.AuthenticationError("Incorrect email or password")
	case errors.Is(err, service.ErrInvalidVerificationToken):
		apiErr = httpx.ValidationError("Invalid or expired verification token")
	case errors.Is(err, service.ErrInvalidResetToken):
		apiErr = httpx.ValidationError("Invalid or expired reset token")
	case errors.Is(err, service.ErrUserNotFound):
		apiErr = httpx.NotFoundError("User not found")
	case errors.Is(err, service.ErrUpstream):
		apiErr = httpx.UpstreamError()
	case errors.Is(err, vault.ErrForbidden):
		apiErr = httpx.AuthorizationError("Access denied")
	case errors.Is(err, vault.ErrNotFound):
		apiErr = httpx.NotFoundError("File not found")
	case errors.Is(err, vault.ErrTooLarge):
		apiErr = httpx.ValidationError("File too large")
	case errors.Is(err, vault.ErrUnknownDataType):
		apiErr = httpx.ValidationError("Invalid data type")
	default:
		slogx.FromContext(ctx).Error("unhandled_error", "error", err)
		apiErr = httpx.ServerError()
	}

	apiErr.WriteError(w)
}

func writeBadJSON(w http.ResponseWriter) {
	httpx.ValidationError("Invalid request body").WriteError(w)
}

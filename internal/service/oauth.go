package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/oauth"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// ProviderClient is the slice of the identity provider the OAuth flow needs.
type ProviderClient interface {
	FetchSession(ctx context.Context, sessionID string) (*oauth.SessionData, error)
}

// OAuthService completes the identity provider callback: it exchanges the
// provider session for account details, links or creates the local account
// and opens a session on it.
type OAuthService struct {
	store        store.Store
	provider     ProviderClient
	accounts     *AccountService
	providerName string
	logger       *slog.Logger

	now func() time.Time
}

func NewOAuthService(st store.Store, provider ProviderClient, accounts *AccountService, providerName string, logger *slog.Logger) *OAuthService {
	return &OAuthService{
		store:        st,
		provider:     provider,
		accounts:     accounts,
		providerName: providerName,
		logger:       logger,
		now:          time.Now,
	}
}

// ExchangeSession completes the callback for the given provider session id.
// Unknown sessions look exactly like bad credentials; provider outages
// surface as ErrUpstream.
func (s *OAuthService) ExchangeSession(ctx context.Context, sessionID string) (*LoginResult, error) {
	if sessionID == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := s.provider.FetchSession(ctx, sessionID)
	if errors.Is(err, oauth.ErrSessionNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("provider_exchange_failed", "error", err)
		return nil, ErrUpstream
	}

	u, err := s.upsertAccount(ctx, data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("provider_login", "user_id", u.ID, "provider", s.providerName)

	// The provider already minted an opaque session token for this login;
	// reuse it so the cookie matches the provider's record. Older providers
	// omit it, then we mint our own.
	if data.SessionToken != "" {
		return s.accounts.openSessionWith(ctx, u, data.SessionToken)
	}
	return s.accounts.openSession(ctx, u)
}

// upsertAccount links the provider identity to an account keyed by email.
// Fresh accounts get a username derived from the provider profile name (or
// the email local part when the profile has none); on a collision we retry
// with a random suffix. The provider vouches for the email, never for age,
// so new accounts start with AgeVerified false.
func (s *OAuthService) upsertAccount(ctx context.Context, data *oauth.SessionData) (*domain.User, error) {
	now := s.now()
	base := deriveUsername(data)
	username := base

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			suffix := strings.ToLower(string(idx.New()))
			username = base + "-" + suffix[len(suffix)-6:]
		}

		u, err := s.store.Users().UpsertProviderUser(ctx, &domain.User{
			ID:            idx.New(),
			Username:      username,
			Email:         data.Email,
			AgeVerified:   false,
			EmailVerified: true,
			Provider:      s.providerName,
			ProviderID:    data.UserID,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("upsert provider user: %w", err)
		}
		return u, nil
	}
	return nil, fmt.Errorf("upsert provider user: could not find a free username for %q", data.Email)
}

func deriveUsername(data *oauth.SessionData) string {
	name := strings.ToLower(strings.TrimSpace(data.Name))
	name = strings.ReplaceAll(name, " ", ".")
	if name == "" {
		name, _, _ = strings.Cut(data.Email, "@")
		name = strings.ToLower(strings.TrimSpace(name))
	}
	if name == "" {
		name = "user"
	}
	return name
}

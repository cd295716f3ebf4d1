package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/checkpointhq/checkpoint/internal/oauth"
)

type fakeProvider struct {
	sessions map[string]*oauth.SessionData
	down     bool
}

func (f *fakeProvider) FetchSession(_ context.Context, sessionID string) (*oauth.SessionData, error) {
	if f.down {
		return nil, oauth.ErrUnavailable
	}
	data, ok := f.sessions[sessionID]
	if !ok {
		return nil, oauth.ErrSessionNotFound
	}
	return data, nil
}

func newTestOAuth(t *testing.T, provider *fakeProvider) (*OAuthService, *AccountService) {
	t.Helper()

	accounts, st := newTestAccounts(t)
	return NewOAuthService(st, provider, accounts, "checkpoint-id", testLogger()), accounts
}

func TestExchangeSession(t *testing.T) {
	provider := &fakeProvider{sessions: map[string]*oauth.SessionData{
		"sess-1": {UserID: "prov-1", Email: "carol@example.com", Name: "Carol"},
	}}
	svc, accounts := newTestOAuth(t, provider)
	ctx := context.Background()

	t.Run("creates account and opens session", func(t *testing.T) {
		res, err := svc.ExchangeSession(ctx, "sess-1")
		require.NoError(t, err)
		require.NotEmpty(t, res.SessionToken)
		require.Equal(t, "carol@example.com", res.User.Email)
		require.Equal(t, "carol", res.User.Username)
		require.True(t, res.User.EmailVerified)
		require.False(t, res.User.AgeVerified)
		require.Equal(t, "checkpoint-id", res.User.Provider)
	})

	t.Run("second exchange reuses the account", func(t *testing.T) {
		first, err := svc.ExchangeSession(ctx, "sess-1")
		require.NoError(t, err)
		second, err := svc.ExchangeSession(ctx, "sess-1")
		require.NoError(t, err)
		require.Equal(t, first.User.ID, second.User.ID)
		require.NotEqual(t, first.SessionToken, second.SessionToken)
	})

	t.Run("unknown session looks like bad credentials", func(t *testing.T) {
		_, err := svc.ExchangeSession(ctx, "sess-unknown")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.ExchangeSession(ctx, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("provider outage is upstream error", func(t *testing.T) {
		provider.down = true
		defer func() { provider.down = false }()

		_, err := svc.ExchangeSession(ctx, "sess-1")
		require.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("existing credential account gains provider linkage", func(t *testing.T) {
		_, err := accounts.Register(ctx, RegisterParams{
			Username:    "dave",
			Email:       "dave@example.com",
			Password:    "daves password here",
			DateOfBirth: "1985-01-01",
		})
		require.NoError(t, err)

		provider.sessions["sess-dave"] = &oauth.SessionData{UserID: "prov-9", Email: "dave@example.com"}

		res, err := svc.ExchangeSession(ctx, "sess-dave")
		require.NoError(t, err)
		require.Equal(t, "dave", res.User.Username, "keeps original username")
		require.Equal(t, "prov-9", res.User.ProviderID)

		// Password login still works after linking.
		_, err = accounts.Login(ctx, "dave@example.com", "daves password here")
		require.NoError(t, err)
	})

	t.Run("provider supplied session token becomes the session", func(t *testing.T) {
		provider.sessions["sess-frank"] = &oauth.SessionData{
			UserID: "prov-11", Email: "frank@example.com", SessionToken: "prov-opaque-frank",
		}

		res, err := svc.ExchangeSession(ctx, "sess-frank")
		require.NoError(t, err)
		require.Equal(t, "prov-opaque-frank", res.SessionToken)

		again, err := svc.ExchangeSession(ctx, "sess-frank")
		require.NoError(t, err)
		require.Equal(t, res.SessionToken, again.SessionToken, "replay re-issues the same token")
	})

	t.Run("username collision gets a suffix", func(t *testing.T) {
		_, err := accounts.Register(ctx, RegisterParams{
			Username:    "erin",
			Email:       "erin@personal.example.com",
			Password:    "erins password here",
			DateOfBirth: "1985-01-01",
		})
		require.NoError(t, err)

		provider.sessions["sess-erin"] = &oauth.SessionData{UserID: "prov-10", Email: "erin@work.example.com"}

		res, err := svc.ExchangeSession(ctx, "sess-erin")
		require.NoError(t, err)
		require.NotEqual(t, "erin", res.User.Username)
		require.Contains(t, res.User.Username, "erin-")
	})
}

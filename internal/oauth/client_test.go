package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session-data", r.URL.Path)

		switch r.Header.Get("X-Session-ID") {
		case "good-session":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"user_id":"prov-1","email":"carol@example.com","name":"Carol","session_token":"prov-opaque-1"}`))
		case "empty-body":
			w.Write([]byte(`{}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	t.Run("valid session", func(t *testing.T) {
		data, err := c.FetchSession(ctx, "good-session")
		require.NoError(t, err)
		require.Equal(t, "carol@example.com", data.Email)
		require.Equal(t, "prov-1", data.UserID)
		require.Equal(t, "prov-opaque-1", data.SessionToken)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := c.FetchSession(ctx, "nope")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("provider error", func(t *testing.T) {
		_, err := c.FetchSession(ctx, "broken")
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("response without email", func(t *testing.T) {
		_, err := c.FetchSession(ctx, "empty-body")
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		dead := NewClient("http://127.0.0.1:1")
		_, err := dead.FetchSession(ctx, "good-session")
		require.ErrorIs(t, err, ErrUnavailable)
	})
}

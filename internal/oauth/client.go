// Package oauth talks to the external identity provider. The provider holds
// browser sessions; we exchange an opaque session id for the account details
// behind it.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrSessionNotFound means the provider does not recognise the session
	// id, or it has expired.
	ErrSessionNotFound = errors.New("oauth: session not found")

	// ErrUnavailable means the provider could not be reached or answered
	// with a server error.
	ErrUnavailable = errors.New("oauth: provider unavailable")
)

// SessionData is what the provider returns for a valid session. SessionToken
// is the opaque token the provider minted for this login; it becomes the
// local session so provider and backend agree on the cookie value.
type SessionData struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	SessionToken string `json:"session_token"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a provider client for baseURL. Calls are bounded by a
// 10 second timeout on top of any request context deadline.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchSession exchanges sessionID for the account behind it. The id travels
// in the X-Session-ID header, never in the URL, so it cannot leak into
// provider access logs.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (*SessionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session-data", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return nil, ErrSessionNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var data SessionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if data.Email == "" {
		return nil, fmt.Errorf("%w: response missing email", ErrUnavailable)
	}
	return &data, nil
}

package api

import (
	"net/http"

	"github.com/checkpointhq/checkpoint/internal/service"
	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.accounts.Register(r.Context(), service.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	// Stand-in for the delivery email until a mailer is wired up.
	slogx.FromContext(r.Context()).Info("verification_token_issued",
		"user_id", res.User.ID, "token", res.VerificationToken)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(res.AccessTokenExpiresIn.Seconds()),
		User:        newUserResponse(res.User),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, res.SessionToken, res.SessionTokenExpiresAt)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(res.AccessTokenExpiresIn.Seconds()),
		User:        newUserResponse(res.User),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u))
}

// handleLogout revokes the cookie session if one is present and always
// clears the cookie. It cannot fail from the client's point of view.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		h.accounts.Logout(r.Context(), c.Value)
	}

	h.clearSessionCookie(w)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.accounts.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	token, err := h.accounts.ResendVerification(r.Context(), req.Email)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if token != "" {
		slogx.FromContext(r.Context()).Info("verification_token_issued", "token", token)
	}

	// Same reply whether or not the email exists.
	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If the email exists, a verification link has been sent",
	})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	token, err := h.accounts.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if token != "" {
		slogx.FromContext(r.Context()).Info("reset_token_issued", "token", token)
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If the email exists, a password reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully"})
}

// handleOAuthRedirect hands the browser the provider's login URL.
func (h *Handler) handleOAuthRedirect(w http.ResponseWriter, r *http.Request) {
	if h.providerAuthURL == "" {
		httpx.NotFoundError("Provider login is not configured").WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, redirectResponse{URL: h.providerAuthURL})
}

type oauthCallbackRequest struct {
	SessionID string `json:"session_id"`
}

// handleOAuthCallback completes a login at the external identity provider.
// The provider session id arrives in the body, a query parameter or the
// X-Session-ID header; the exchange result is a regular session cookie plus
// the user payload.
func (h *Handler) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req oauthCallbackRequest
	if r.Body != nil {
		_ = httpx.DecodeJSON(r, &req)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session_id")
	}
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}

	res, err := h.oauth.ExchangeSession(r.Context(), sessionID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, res.SessionToken, res.SessionTokenExpiresAt)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(res.AccessTokenExpiresIn.Seconds()),
		User:        newUserResponse(res.User),
	})
}

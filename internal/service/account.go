package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/pkg/cryptox"
	"github.com/checkpointhq/checkpoint/pkg/idx"
	"github.com/checkpointhq/checkpoint/pkg/jwtx"
)

const (
	// MinimumAge gates registration. Calendar-correct, checked against the
	// submitted date of birth.
	MinimumAge = 18

	MinPasswordLength = 8

	dateOfBirthLayout = "2006-01-02"

	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = time.Hour
)

// AccountService owns registration, credential login, session tokens and the
// single-use email verification and password reset flows.
type AccountService struct {
	store  store.Store
	signer *jwtx.Signer
	logger *slog.Logger

	// dummyHash absorbs a full verification when login targets an unknown
	// email, so response timing does not reveal which emails exist.
	dummyHash string

	now func() time.Time
}

func NewAccountService(st store.Store, signer *jwtx.Signer, logger *slog.Logger) *AccountService {
	dummy, err := cryptox.HashPassword("decoy-password-for-timing")
	if err != nil {
		// Hashing only fails if the pepper cannot be loaded, which is fatal
		// at startup anyway.
		panic(fmt.Sprintf("account service: dummy hash: %v", err))
	}

	return &AccountService{
		store:     st,
		signer:    signer,
		logger:    logger,
		dummyHash: dummy,
		now:       time.Now,
	}
}

type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	DateOfBirth string
}

// RegisterResult carries the created user, a fresh bearer token and the raw
// verification token. The verification token exists only here and in the
// delivery email, never in storage.
type RegisterResult struct {
	User *domain.User

	AccessToken          string
	AccessTokenExpiresIn time.Duration

	VerificationToken string
}

// Register creates a credential account. Checks run in a fixed order so the
// client always learns the first failing rule: email uniqueness, username
// uniqueness, date format, age. The date of birth is optional; without one
// the account is created unverified for age.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (*RegisterResult, error) {
	if p.Username == "" || p.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidCredentials)
	}
	if len(p.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.store.Users().GetByEmail(ctx, p.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if _, err := s.store.Users().GetByUsername(ctx, p.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	now := s.now()

	var dob *time.Time
	var ageVerified bool
	if p.DateOfBirth != "" {
		parsed, err := time.Parse(dateOfBirthLayout, p.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		if domain.Age(parsed, now) < MinimumAge {
			return nil, ErrUnderage
		}
		dob = &parsed
		ageVerified = true
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           idx.New(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: hash,
		DateOfBirth:  dob,
		AgeVerified:  ageVerified,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().Create(ctx, u); err != nil {
		// A concurrent registration can win the race between the pre-check
		// and the insert.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	access, err := s.mintAccessToken(u, now)
	if err != nil {
		return nil, err
	}

	token, err := s.issueVerificationToken(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user_registered", "user_id", u.ID, "username", u.Username)
	return &RegisterResult{
		User:                 u,
		AccessToken:          access,
		AccessTokenExpiresIn: jwtx.DefaultAccessTokenTTL,
		VerificationToken:    token,
	}, nil
}

type LoginResult struct {
	User *domain.User

	// AccessToken is a signed bearer token, short lived.
	AccessToken          string
	AccessTokenExpiresIn time.Duration

	// SessionToken is the opaque cookie value, long lived.
	SessionToken          string
	SessionTokenExpiresAt time.Time
}

// Login verifies credentials and mints both token kinds. Every failure is
// ErrInvalidCredentials; unknown emails still pay for a hash verification so
// timing stays flat.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = cryptox.VerifyPassword(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !u.IsActive || !u.HasPassword() {
		_ = cryptox.VerifyPassword(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, u)
}

func (s *AccountService) mintAccessToken(u *domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(string(u.ID), s.signer.Issuer(), jwtx.DefaultAccessTokenTTL, now)
	access, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

// openSession mints an access token and installs a fresh opaque session.
func (s *AccountService) openSession(ctx context.Context, u *domain.User) (*LoginResult, error) {
	session, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	return s.openSessionWith(ctx, u, session)
}

// openSessionWith installs the given opaque token as the user's single live
// session. Used directly when the identity provider supplies the token.
func (s *AccountService) openSessionWith(ctx context.Context, u *domain.User, session string) (*LoginResult, error) {
	now := s.now()

	access, err := s.mintAccessToken(u, now)
	if err != nil {
		return nil, err
	}

	sessionExpiry := now.Add(jwtx.DefaultSessionTTL)
	if err := s.store.Users().SetSession(ctx, u.ID, cryptox.FingerprintToken(session), sessionExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("session_opened", "user_id", u.ID)
	return &LoginResult{
		User:                  u,
		AccessToken:           access,
		AccessTokenExpiresIn:  jwtx.DefaultAccessTokenTTL,
		SessionToken:          session,
		SessionTokenExpiresAt: sessionExpiry,
	}, nil
}

func (s *AccountService) GetUser(ctx context.Context, id idx.ID) (*domain.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// VerifyEmail redeems a verification token. The token is consumed in the
// same statement that checks its expiry, so it can only ever succeed once.
func (s *AccountService) VerifyEmail(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return ErrInvalidVerificationToken
	}

	id, err := s.store.Users().ConsumeVerificationToken(ctx, cryptox.FingerprintToken(rawToken), s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidVerificationToken
	}
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}

	s.logger.Info("email_verified", "user_id", id)
	return nil
}

// ResendVerification issues a fresh verification token. To keep the endpoint
// enumeration-free it reports success with an empty token when the email is
// unknown or already verified; the handler sends the same reply either way.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (string, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if u.EmailVerified {
		return "", nil
	}

	return s.issueVerificationToken(ctx, u.ID)
}

func (s *AccountService) issueVerificationToken(ctx context.Context, id idx.ID) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}

	expiry := s.now().Add(VerificationTokenTTL)
	if err := s.store.Users().SetVerificationToken(ctx, id, cryptox.FingerprintToken(token), expiry); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}
	return token, nil
}

// ForgotPassword issues a reset token, or silently does nothing for unknown
// emails. Same enumeration posture as ResendVerification.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	expiry := s.now().Add(ResetTokenTTL)
	if err := s.store.Users().SetResetToken(ctx, u.ID, cryptox.FingerprintToken(token), expiry); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("reset_token_issued", "user_id", u.ID)
	return token, nil
}

// ResetPassword redeems a reset token and installs the new password in one
// conditional update.
func (s *AccountService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.Users().ConsumeResetToken(ctx, cryptox.FingerprintToken(rawToken), hash, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.logger.Info("password_reset", "user_id", id)
	return nil
}

// Logout revokes the opaque session holding rawToken. It never reports
// failure to the caller; a broken logout must still clear the cookie.
func (s *AccountService) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}
	if err := s.store.Users().ClearSessionByFingerprint(ctx, cryptox.FingerprintToken(rawToken)); err != nil {
		s.logger.Warn("logout_failed", "error", err)
	}
}

package service

import "errors"

// Sentinel errors returned by the services. The HTTP layer maps these onto
// status codes and client-facing messages.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidDateFormat  = errors.New("invalid date of birth format")
	ErrUnderage           = errors.New("user is under the minimum age")
	ErrPasswordTooShort   = errors.New("password too short")

	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")

	ErrUserNotFound = errors.New("user not found")

	ErrUpstream = errors.New("identity provider unavailable")
)

package domain

import (
	"time"

	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// User is an account holder. Password-credential users carry a hash and a
// date of birth; identity-provider users carry provider linkage instead and
// may have neither.
type User struct {
	ID           idx.ID
	Username     string
	Email        string
	PasswordHash string

	DateOfBirth *time.Time
	AgeVerified bool

	EmailVerified bool

	// Single-use token fingerprints. The raw token only ever travels to the
	// user; the store holds its SHA-256 fingerprint and an expiry.
	VerificationTokenFingerprint string
	VerificationTokenExpiresAt   *time.Time
	ResetTokenFingerprint        string
	ResetTokenExpiresAt          *time.Time

	// Opaque session token fingerprint, refreshed on every login and
	// identity-provider callback.
	SessionTokenFingerprint string
	SessionTokenExpiresAt   *time.Time

	Provider   string
	ProviderID string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the user can authenticate with credentials.
// Provider-only accounts cannot.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// SessionValid reports whether the stored session token is still live at now.
func (u *User) SessionValid(now time.Time) bool {
	return u.SessionTokenFingerprint != "" &&
		u.SessionTokenExpiresAt != nil &&
		now.Before(*u.SessionTokenExpiresAt)
}

// Age returns the user's age in whole years at now, calendar-correct: the
// year difference drops by one if this year's birthday has not yet passed.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

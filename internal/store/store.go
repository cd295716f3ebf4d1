package store

import (
	"context"
	"errors"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

var (
	// ErrNotFound is returned when a record does not exist, or when a
	// conditional update matched no row (consumed or expired token).
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned on unique constraint violations.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store bundles the repositories behind a single open/close lifecycle.
type Store interface {
	Users() UserRepository
	StatusChecks() StatusCheckRepository

	Close() error
}

// UserRepository persists accounts and their single-use tokens.
//
// Token consumption methods perform the expiry check and the state change in
// one conditional update so a token can never be redeemed twice, even under
// concurrent requests.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id idx.ID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetBySessionFingerprint looks up the holder of an opaque session token.
	// Expiry is the caller's concern; the record is returned as stored.
	GetBySessionFingerprint(ctx context.Context, fingerprint string) (*domain.User, error)

	// SetSession installs a new session token fingerprint, replacing any
	// previous one.
	SetSession(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error

	// ClearSessionByFingerprint removes a session token. Clearing a token
	// that is already gone is not an error.
	ClearSessionByFingerprint(ctx context.Context, fingerprint string) error

	SetVerificationToken(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error

	// ConsumeVerificationToken marks the holder's email verified and clears
	// the token, provided the token exists and has not expired at now.
	// Returns ErrNotFound otherwise.
	ConsumeVerificationToken(ctx context.Context, fingerprint string, now time.Time) (idx.ID, error)

	SetResetToken(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error

	// ConsumeResetToken installs a new password hash and clears the token,
	// provided the token exists and has not expired at now. Returns
	// ErrNotFound otherwise.
	ConsumeResetToken(ctx context.Context, fingerprint, passwordHash string, now time.Time) (idx.ID, error)

	// UpsertProviderUser links or creates an account from an identity
	// provider callback, keyed by email. Existing accounts keep their
	// username and credentials; only the provider linkage is updated.
	UpsertProviderUser(ctx context.Context, u *domain.User) (*domain.User, error)
}

// StatusCheckRepository persists client health pings, partitioned by owner.
type StatusCheckRepository interface {
	Insert(ctx context.Context, sc *domain.StatusCheck) error
	ListRecent(ctx context.Context, userID idx.ID, limit int) ([]domain.StatusCheck, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/store"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// timeLayout is fixed-width UTC so stored timestamps compare correctly as
// strings inside SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const dateLayout = "2006-01-02"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored time %q: %w", s.String, err)
	}
	return &t, nil
}

type UserRepository struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash,
	date_of_birth, age_verified, email_verified,
	verification_token_fingerprint, verification_token_expires_at,
	reset_token_fingerprint, reset_token_expires_at,
	session_token_fingerprint, session_token_expires_at,
	provider, provider_id, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                  domain.User
		dob                sql.NullString
		verifFP, resetFP   sql.NullString
		sessFP             sql.NullString
		verifExp, resetExp sql.NullString
		sessExp            sql.NullString
		createdAt, updated string
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&dob, &u.AgeVerified, &u.EmailVerified,
		&verifFP, &verifExp,
		&resetFP, &resetExp,
		&sessFP, &sessExp,
		&u.Provider, &u.ProviderID, &u.IsActive, &createdAt, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if dob.Valid {
		d, err := time.Parse(dateLayout, dob.String)
		if err != nil {
			return nil, fmt.Errorf("parse stored date of birth %q: %w", dob.String, err)
		}
		u.DateOfBirth = &d
	}

	u.VerificationTokenFingerprint = verifFP.String
	u.ResetTokenFingerprint = resetFP.String
	u.SessionTokenFingerprint = sessFP.String

	if u.VerificationTokenExpiresAt, err = parseTimePtr(verifExp); err != nil {
		return nil, err
	}
	if u.ResetTokenExpiresAt, err = parseTimePtr(resetExp); err != nil {
		return nil, err
	}
	if u.SessionTokenExpiresAt, err = parseTimePtr(sessExp); err != nil {
		return nil, err
	}

	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &u, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var dob any
	if u.DateOfBirth != nil {
		dob = u.DateOfBirth.Format(dateLayout)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash,
		dob, u.AgeVerified, u.EmailVerified,
		nullIfEmpty(u.VerificationTokenFingerprint), fmtTimePtr(u.VerificationTokenExpiresAt),
		nullIfEmpty(u.ResetTokenFingerprint), fmtTimePtr(u.ResetTokenExpiresAt),
		nullIfEmpty(u.SessionTokenFingerprint), fmtTimePtr(u.SessionTokenExpiresAt),
		u.Provider, u.ProviderID, u.IsActive, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id idx.ID) (*domain.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

func (r *UserRepository) GetBySessionFingerprint(ctx context.Context, fingerprint string) (*domain.User, error) {
	return r.getBy(ctx, "session_token_fingerprint = ?", fingerprint)
}

func (r *UserRepository) SetSession(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error {
	return r.updateOne(ctx, `
		UPDATE users
		SET session_token_fingerprint = ?, session_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		fingerprint, fmtTime(expiresAt), fmtTime(time.Now()), id)
}

func (r *UserRepository) ClearSessionByFingerprint(ctx context.Context, fingerprint string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET session_token_fingerprint = NULL, session_token_expires_at = NULL, updated_at = ?
		WHERE session_token_fingerprint = ?`,
		fmtTime(time.Now()), fingerprint)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error {
	return r.updateOne(ctx, `
		UPDATE users
		SET verification_token_fingerprint = ?, verification_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		fingerprint, fmtTime(expiresAt), fmtTime(time.Now()), id)
}

func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, fingerprint string, now time.Time) (idx.ID, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email_verified = 1,
		    verification_token_fingerprint = NULL,
		    verification_token_expires_at = NULL,
		    updated_at = ?
		WHERE verification_token_fingerprint = ?
		  AND verification_token_expires_at > ?
		RETURNING id`,
		fmtTime(now), fingerprint, fmtTime(now))

	var id idx.ID
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return idx.Zero, store.ErrNotFound
		}
		return idx.Zero, fmt.Errorf("consume verification token: %w", err)
	}
	return id, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id idx.ID, fingerprint string, expiresAt time.Time) error {
	return r.updateOne(ctx, `
		UPDATE users
		SET reset_token_fingerprint = ?, reset_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		fingerprint, fmtTime(expiresAt), fmtTime(time.Now()), id)
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, fingerprint, passwordHash string, now time.Time) (idx.ID, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = ?,
		    reset_token_fingerprint = NULL,
		    reset_token_expires_at = NULL,
		    updated_at = ?
		WHERE reset_token_fingerprint = ?
		  AND reset_token_expires_at > ?
		RETURNING id`,
		passwordHash, fmtTime(now), fingerprint, fmtTime(now))

	var id idx.ID
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return idx.Zero, store.ErrNotFound
		}
		return idx.Zero, fmt.Errorf("consume reset token: %w", err)
	}
	return id, nil
}

func (r *UserRepository) UpsertProviderUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (
			id, username, email, password_hash,
			age_verified, email_verified,
			provider, provider_id, is_active, created_at, updated_at
		)
		VALUES (?, ?, ?, '', ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			provider = excluded.provider,
			provider_id = excluded.provider_id,
			email_verified = 1,
			updated_at = excluded.updated_at
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email,
		u.AgeVerified, u.EmailVerified,
		u.Provider, u.ProviderID, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt),
	)

	out, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

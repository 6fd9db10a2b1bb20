package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cultural-property-api/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id, username, email, password_hash, name, bio, is_email_verified,
	COALESCE(email_verification_token::text, ''), email_verification_token_created_at,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.Bio,
		&u.IsEmailVerified, &u.EmailVerificationToken,
		&u.EmailVerificationTokenCreatedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser persists one user and returns its new id.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	sql := `
		INSERT INTO users
			(username, email, password_hash, name, email_verification_token,
			 email_verification_token_created_at)
		VALUES ($1, $2, $3, $4, $5::uuid, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, sql,
		u.Username, u.Email, u.PasswordHash, u.Name,
		u.EmailVerificationToken, u.EmailVerificationTokenCreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert user: %w", err)
	}
	return id, nil
}

// GetUser fetches one user by id, or pgx.ErrNoRows.
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch user: %w", err)
	}
	return u, nil
}

// GetUserByUsername fetches one user by username, or pgx.ErrNoRows.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch user by username: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches one user by email, or pgx.ErrNoRows.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch user by email: %w", err)
	}
	return u, nil
}

// GetUserByVerificationToken fetches the user holding the given verification
// token, or pgx.ErrNoRows.
func (r *Repository) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT`+userColumns+` FROM users WHERE email_verification_token = $1::uuid`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("repository: failed to fetch user by token: %w", err)
	}
	return u, nil
}

// UpdatePassword replaces a user's stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetVerificationToken rotates a user's email verification token.
func (r *Repository) SetVerificationToken(ctx context.Context, userID int64, token string, createdAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			email_verification_token = $1::uuid,
			email_verification_token_created_at = $2,
			updated_at = now()
		WHERE id = $3`, token, createdAt, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to set verification token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkEmailVerified flags a user's email address as verified.
func (r *Repository) MarkEmailVerified(ctx context.Context, userID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET is_email_verified = TRUE, updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateUserProfile rewrites a user's editable profile fields.
func (r *Repository) UpdateUserProfile(ctx context.Context, u *models.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $1, bio = $2, updated_at = now() WHERE id = $3`,
		u.Name, u.Bio, u.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

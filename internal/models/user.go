package models

import "time"

// User is an account holder. Passwords are stored as bcrypt hashes and the
// hash is never serialized into API responses.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`

	IsEmailVerified bool `json:"is_email_verified"`
	// Verification token state. The token is rotated on every resend and
	// expires 24 hours after creation.
	EmailVerificationToken          string     `json:"-"`
	EmailVerificationTokenCreatedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cultural-property-api/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// verificationTokenTTL bounds how long an emailed verification token stays
// usable.
const verificationTokenTTL = 24 * time.Hour

const minPasswordLength = 8

// UserRepository is the persistence surface for account management.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	SetVerificationToken(ctx context.Context, userID int64, token string, createdAt time.Time) error
	MarkEmailVerified(ctx context.Context, userID int64) error
	UpdateUserProfile(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// Mailer delivers verification mail. The import and account logic never
// interprets delivery outcomes beyond logging; implementations own transport.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}

// AccountService contains the business logic for user accounts and email
// verification. Authentication token issuance is a caller concern.
type AccountService struct {
	repo   UserRepository
	mailer Mailer
	now    func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(repo UserRepository, mailer Mailer) *AccountService {
	return &AccountService{repo: repo, mailer: mailer, now: time.Now}
}

// SignUpInput carries a registration request.
type SignUpInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Name            string `json:"name"`
}

// SignUp registers a new user and sends the verification mail. Delivery
// failures are logged, not surfaced: the account exists either way and the
// token can be resent.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email, passwordは必須項目です", ErrInvalid)
	}
	if in.Password != in.PasswordConfirm {
		return nil, fmt.Errorf("%w: パスワードが一致しません", ErrInvalid)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: パスワードは%d文字以上にしてください", ErrInvalid, minPasswordLength)
	}

	if _, err := s.repo.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("%w: このユーザー名は既に使用されています", ErrInvalid)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("service: failed to check username: %w", err)
	}
	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: このメールアドレスは既に登録されています", ErrInvalid)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("service: failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	tokenCreated := s.now()
	u := &models.User{
		Username:                        in.Username,
		Email:                           in.Email,
		PasswordHash:                    string(hash),
		Name:                            in.Name,
		EmailVerificationToken:          uuid.NewString(),
		EmailVerificationTokenCreatedAt: &tokenCreated,
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}
	u.ID = id

	if err := s.mailer.SendVerificationEmail(ctx, u.Email, u.EmailVerificationToken); err != nil {
		log.Error().Err(err).Str("email", u.Email).Msg("failed to send verification email")
	}

	return s.Profile(ctx, id)
}

// VerifyEmail marks the token holder's email address as verified. Tokens
// expire 24 hours after creation.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: tokenは必須項目です", ErrInvalid)
	}

	u, err := s.repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: 認証トークンが無効です", ErrInvalid)
		}
		return fmt.Errorf("service: failed to look up verification token: %w", err)
	}

	if u.EmailVerificationTokenCreatedAt == nil ||
		s.now().Sub(*u.EmailVerificationTokenCreatedAt) > verificationTokenTTL {
		return fmt.Errorf("%w: 認証トークンの有効期限が切れています", ErrInvalid)
	}

	if err := s.repo.MarkEmailVerified(ctx, u.ID); err != nil {
		return fmt.Errorf("service: failed to mark email verified: %w", err)
	}
	return nil
}

// ResendVerification rotates the token for an unverified address and resends
// the mail.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: emailは必須項目です", ErrInvalid)
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch user: %w", err)
	}
	if u.IsEmailVerified {
		return fmt.Errorf("%w: このメールアドレスは認証済みです", ErrInvalid)
	}

	token := uuid.NewString()
	if err := s.repo.SetVerificationToken(ctx, u.ID, token, s.now()); err != nil {
		return fmt.Errorf("service: failed to rotate verification token: %w", err)
	}
	if err := s.mailer.SendVerificationEmail(ctx, u.Email, token); err != nil {
		return fmt.Errorf("service: failed to send verification email: %w", err)
	}
	return nil
}

// Profile fetches one user.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch user: %w", err)
	}
	return u, nil
}

// UpdateProfile rewrites the editable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, name, bio string) (*models.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Name = name
	u.Bio = bio
	if err := s.repo.UpdateUserProfile(ctx, u); err != nil {
		return nil, fmt.Errorf("service: failed to update profile: %w", err)
	}
	return s.Profile(ctx, userID)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: パスワードは%d文字以上にしてください", ErrInvalid, minPasswordLength)
	}

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: 現在のパスワードが正しくありません", ErrInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("service: failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("service: failed to update password: %w", err)
	}
	return nil
}

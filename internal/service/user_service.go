package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pizza-shop/internal/domain"
	"pizza-shop/internal/mailer"
	"pizza-shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12

	// OneTimeTokenExpiry bounds email verification and password reset tokens
	OneTimeTokenExpiry = 30 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrEmailSendFailed    = errors.New("email could not be sent")
)

// ProfileUpdate carries the mutable profile fields of a user.
type ProfileUpdate struct {
	Name    string
	Email   string
	Address string
	City    string
	State   string
	Country string
	PinCode string
	PhoneNo string
}

// UserService defines the user and authentication business logic
type UserService interface {
	Register(ctx context.Context, name, email, password string) (user *domain.User, emailSent bool, err error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type userService struct {
	userRepo  repository.UserRepository
	mail      mailer.Mailer
	jwtSecret string
	jwtExpiry time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	jwtSecret string,
	jwtExpiryMinutes int,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		mail:      mail,
		jwtSecret: jwtSecret,
		jwtExpiry: time.Duration(jwtExpiryMinutes) * time.Minute,
		logger:    logger,
	}
}

// generateOneTimeToken returns a random plaintext token and its SHA-256 hash.
// Only the hash is ever persisted.
func generateOneTimeToken() (plain, hash string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates an unverified account and emails a verification link. The
// account is created even when the email cannot be sent; the caller learns
// about the delivery via emailSent.
func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	plainToken, tokenHash, err := generateOneTimeToken()
	if err != nil {
		return nil, false, err
	}

	expire := time.Now().Add(OneTimeTokenExpiry)
	user := &domain.User{
		ID:                      uuid.New(),
		Name:                    name,
		Email:                   email,
		PasswordHash:            hashedPassword,
		Role:                    domain.RoleUser,
		IsEmailVerified:         false,
		EmailVerificationToken:  tokenHash,
		EmailVerificationExpire: &expire,
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}

	if err := s.mail.SendVerificationEmail(ctx, user.Email, plainToken); err != nil {
		s.logger.Warn("Failed to send verification email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return user, false, nil
	}

	return user, true, nil
}

// Login authenticates a verified user and returns a signed JWT
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// VerifyEmail redeems an email verification token. The presented plaintext is
// hashed and matched against the stored hash; redemption is single-use.
func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	return s.userRepo.RedeemVerificationToken(ctx, hashToken(token))
}

// ForgotPassword issues a reset token and emails it. If the email cannot be
// sent the token is cleared again so no orphaned reset window remains.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	plainToken, tokenHash, err := generateOneTimeToken()
	if err != nil {
		return err
	}

	if err := s.userRepo.SetResetToken(ctx, user.ID, tokenHash, time.Now().Add(OneTimeTokenExpiry)); err != nil {
		return err
	}

	if err := s.mail.SendPasswordResetEmail(ctx, user.Email, plainToken); err != nil {
		s.logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("Failed to clear reset token", zap.Error(clearErr))
		}
		return ErrEmailSendFailed
	}

	return nil
}

// ResetPassword redeems a reset token and stores the new password hash
func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hashedPassword, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.RedeemResetToken(ctx, hashToken(token), hashedPassword)
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateProfile applies a profile update, rejecting an email already taken by
// another user.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	user.Address = update.Address
	user.City = update.City
	user.State = update.State
	user.Country = update.Country
	user.PinCode = update.PinCode
	user.PhoneNo = update.PhoneNo

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the current password before storing a new hash
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashedPassword, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, hashedPassword)
}

// DeleteAccount removes a user account
func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.Delete(ctx, userID)
}

// CreateAdmin creates an auto-verified admin account
func (s *userService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:              uuid.New(),
		Name:            name,
		Email:           email,
		PasswordHash:    hashedPassword,
		Role:            domain.RoleAdmin,
		IsEmailVerified: true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers retrieves all non-admin users
func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListByRole(ctx, domain.RoleUser)
}

// CountUsers counts non-admin users
func (s *userService) CountUsers(ctx context.Context) (int, error) {
	return s.userRepo.CountByRole(ctx, domain.RoleUser)
}

func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// generateToken signs a JWT carrying the user id and role
func (s *userService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

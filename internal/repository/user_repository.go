package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizza-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrTokenInvalid      = errors.New("invalid or expired token")
)

const userColumns = `id, name, email, password_hash, role, is_email_verified,
		email_verification_token, email_verification_expire,
		reset_password_token, reset_password_expire,
		address, city, state, country, pin_code, phone_no,
		created_at, updated_at`

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error
	RedeemVerificationToken(ctx context.Context, tokenHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) error
	ListByRole(ctx context.Context, role string) ([]*domain.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "SQLSTATE 23505") ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsEmailVerified,
		&user.EmailVerificationToken,
		&user.EmailVerificationExpire,
		&user.ResetPasswordToken,
		&user.ResetPasswordExpire,
		&user.Address,
		&user.City,
		&user.State,
		&user.Country,
		&user.PinCode,
		&user.PhoneNo,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user into the database using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_email_verified,
			email_verification_token, email_verification_expire,
			address, city, state, country, pin_code, phone_no,
			created_at, updated_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsEmailVerified,
		user.EmailVerificationToken,
		user.EmailVerificationExpire,
		user.Address,
		user.City,
		user.State,
		user.Country,
		user.PinCode,
		user.PhoneNo,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email (case-insensitive)
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = lower($1)`, userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// UpdateProfile updates the mutable profile fields of a user
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = lower($3), address = $4, city = $5, state = $6,
		    country = $7, pin_code = $8, phone_no = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.Address,
		user.City,
		user.State,
		user.Country,
		user.PinCode,
		user.PhoneNo,
		time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user account
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetVerificationToken stores the hashed email verification token and expiry
func (r *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	query := `
		UPDATE users
		SET email_verification_token = $2, email_verification_expire = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, tokenHash, expire, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}
	return nil
}

// RedeemVerificationToken marks the matching user verified and clears the
// token in a single statement, so redemption is atomic and single-use. An
// expired and a non-matching token are indistinguishable to the caller.
func (r *userRepository) RedeemVerificationToken(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE users
		SET is_email_verified = TRUE,
		    email_verification_token = '',
		    email_verification_expire = NULL,
		    updated_at = $2
		WHERE email_verification_token = $1
		  AND email_verification_token <> ''
		  AND email_verification_expire > $2
	`

	result, err := r.db.ExecContext(ctx, query, tokenHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to redeem verification token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTokenInvalid
	}

	return nil
}

// SetResetToken stores the hashed password reset token and expiry
func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	query := `
		UPDATE users
		SET reset_password_token = $2, reset_password_expire = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, tokenHash, expire, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// ClearResetToken removes a pending reset token, used when the reset email
// cannot be sent.
func (r *userRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET reset_password_token = '', reset_password_expire = NULL, updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

// RedeemResetToken replaces the password of the user holding a matching
// unexpired token and clears the token, atomically.
func (r *userRepository) RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_password_token = '',
		    reset_password_expire = NULL,
		    updated_at = $3
		WHERE reset_password_token = $1
		  AND reset_password_token <> ''
		  AND reset_password_expire > $3
	`

	result, err := r.db.ExecContext(ctx, query, tokenHash, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTokenInvalid
	}

	return nil
}

// ListByRole retrieves all users with the given role, newest first
func (r *userRepository) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 ORDER BY created_at DESC`, userColumns)

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountByRole counts users with the given role
func (r *userRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

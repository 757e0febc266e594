package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. The password hash and one-time token
// hashes are never serialized in API responses.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`

	IsEmailVerified bool `json:"is_email_verified" db:"is_email_verified"`

	// One-time tokens are stored as SHA-256 hashes with a fixed expiry and
	// cleared after single use.
	EmailVerificationToken  string     `json:"-" db:"email_verification_token"`
	EmailVerificationExpire *time.Time `json:"-" db:"email_verification_expire"`
	ResetPasswordToken      string     `json:"-" db:"reset_password_token"`
	ResetPasswordExpire     *time.Time `json:"-" db:"reset_password_expire"`

	Address string `json:"address" db:"address"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	Country string `json:"country" db:"country"`
	PinCode string `json:"pin_code" db:"pin_code"`
	PhoneNo string `json:"phone_no" db:"phone_no"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

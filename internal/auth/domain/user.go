package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // stored lowercase
	Name         string
	Role         Role
	PasswordHash string // argon2id PHC string, or legacy bcrypt

	PasswordResetTokenHash      string     // SHA-256 hex of the outstanding reset token, "" when none
	PasswordResetTokenExpiresAt *time.Time // nil when no token is outstanding
	PasswordResetRequired       bool

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential is the password-related subset of a user record.
type Credential struct {
	PasswordHash                string
	PasswordResetTokenHash      string
	PasswordResetTokenExpiresAt *time.Time
	PasswordResetRequired       bool
}

func (u User) Credential() Credential {
	return Credential{
		PasswordHash:                u.PasswordHash,
		PasswordResetTokenHash:      u.PasswordResetTokenHash,
		PasswordResetTokenExpiresAt: u.PasswordResetTokenExpiresAt,
		PasswordResetRequired:       u.PasswordResetRequired,
	}
}

// HasResetToken reports whether a reset token hash/expiry pair is stored.
func (c Credential) HasResetToken() bool {
	return c.PasswordResetTokenHash != "" && c.PasswordResetTokenExpiresAt != nil
}

// NormalizeEmail trims and lowercases an email address. Emails are compared
// case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package service

import (
	"errors"

	"github.com/aussiebroadwan/worklog/pkg/cryptox"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrResetTokenInvalid  = errors.New("reset_token_invalid")
	ErrPasswordReused     = errors.New("password_reused")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrUserNotFound       = errors.New("user_not_found")

	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// PasswordPolicyError reports a new password that failed validation. Result
// lists every violated rule.
type PasswordPolicyError struct {
	Result cryptox.StrengthResult
}

func (e *PasswordPolicyError) Error() string {
	return "password does not meet the policy"
}

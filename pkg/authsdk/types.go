package authsdk

import (
	"time"

	"github.com/aussiebroadwan/worklog/pkg/jwtx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g., "invalid_token")
	Error string `json:"error" example:"invalid_token"`

	// Message is a human-readable description of the error
	Message string `json:"message" example:"the reset link is invalid or has expired"`
}

// ValidationErrorResponse is returned with HTTP 422 when request fields or
// a new password fail validation.
type ValidationErrorResponse struct {
	// Code is always "validation_error"
	Code string `json:"code" example:"validation_error"`

	// Message is a human-readable error message
	Message string `json:"message" example:"password does not meet the policy"`

	// Details contains field-specific validation errors (field name: error message)
	Details map[string]string `json:"details,omitempty"`

	// Errors lists every password policy violation
	Errors []string `json:"errors,omitempty"`

	// Suggestions lists hints for a stronger password
	Suggestions []string `json:"suggestions,omitempty"`
}

// ============================================================================
// Login
// ============================================================================

// TokenResponse is returned from POST /v1/auth/login.
type TokenResponse struct {
	// AccessToken is the EdDSA-signed JWT used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type" example:"Bearer"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in" example:"900"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope" example:"profile:read profile:write password:change"`

	// PasswordResetRequired is set when the account must change its password
	// before anything else; the token then only carries password:change and
	// profile:read.
	PasswordResetRequired bool `json:"password_reset_required"`
}

// ============================================================================
// Password Types
// ============================================================================

// AcceptedResponse is returned by forgot-password regardless of whether the
// email belongs to an account.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
}

// ResetTokenStatusResponse reports that a reset token is currently usable.
type ResetTokenStatusResponse struct {
	Valid bool `json:"valid" example:"true"`
}

// StatusResponse is a generic success body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// StrengthResponse is the advisory password strength report.
type StrengthResponse struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score" example:"4"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
	Entropy     float64  `json:"entropy" example:"52.3"`
	CrackTime   string   `json:"crack_time,omitempty" example:"centuries"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse describes an account.
type UserResponse struct {
	ID                    string    `json:"id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Email                 string    `json:"email" example:"jane@example.com"`
	Name                  string    `json:"name" example:"Jane Doe"`
	Role                  string    `json:"role" example:"manager"`
	Active                bool      `json:"active"`
	PasswordResetRequired bool      `json:"password_reset_required"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// CreateUserRequest is the admin "create user" payload. When Password is
// empty the service generates a temporary one and returns it once.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" example:"jane@example.com"`
	Name     string `json:"name" validate:"required,max=100" example:"Jane Doe"`
	Role     string `json:"role" validate:"required,oneof=admin manager user" example:"user"`
	Password string `json:"password,omitempty" validate:"omitempty,max=256"`
}

// CreateUserResponse returns the new account and, if one was generated, its
// temporary password.
type CreateUserResponse struct {
	User              UserResponse `json:"user"`
	TemporaryPassword string       `json:"temporary_password,omitempty"`
}

// TemporaryPasswordResponse carries an admin-issued temporary password.
type TemporaryPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first administrator.
type BootstrapRequest struct {
	Email string `json:"email" validate:"required,email,max=254" example:"admin@example.com"`
	Name  string `json:"name" validate:"required,max=100" example:"Administrator"`
}

// BootstrapResponse returns the first administrator and its temporary
// password. The account must change it at first login.
type BootstrapResponse struct {
	User              UserResponse `json:"user"`
	TemporaryPassword string       `json:"temporary_password"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set served at
// /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS

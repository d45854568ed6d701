package domain

import "time"

// AccessToken is what a successful login returns.
type AccessToken struct {
	Token                 string
	TokenType             string // always "Bearer"
	ExpiresIn             time.Duration
	Scopes                []string
	PasswordResetRequired bool
}

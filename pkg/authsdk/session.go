package authsdk

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned once the access token has expired. Tokens
// cannot be refreshed; log in again.
var ErrSessionExpired = errors.New("authsdk: session expired")

// expirySkew retires a token slightly before the server would reject it.
const expirySkew = 5 * time.Second

// ScopeError is returned before a request is sent when the session lacks a
// scope the endpoint needs.
type ScopeError struct {
	Missing []string
}

func (e *ScopeError) Error() string {
	return "authsdk: missing required scope(s): " + strings.Join(e.Missing, ", ")
}

// Session holds one access token and the scopes it was granted.
type Session struct {
	client *SDKClient

	mu         sync.RWMutex
	token      string
	expiresAt  time.Time
	scopes     map[string]struct{}
	mustRotate bool
}

func newSession(client *SDKClient, tr *TokenResponse) *Session {
	scopes := make(map[string]struct{})
	for _, s := range strings.Fields(tr.Scope) {
		scopes[s] = struct{}{}
	}
	return &Session{
		client:     client,
		token:      tr.AccessToken,
		expiresAt:  time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - expirySkew),
		scopes:     scopes,
		mustRotate: tr.PasswordResetRequired,
	}
}

func (s *Session) validToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !time.Now().Before(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}

// AccessToken returns the bearer token, expired or not.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is when the session stops sending its token.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// PasswordResetRequired reports whether the account is on a temporary or
// admin-expired password. Until it is changed the token only carries the
// password:change scope.
func (s *Session) PasswordResetRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mustRotate
}

// Scopes returns the granted scopes, sorted.
func (s *Session) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.scopes))
}

func (s *Session) HasScope(scope string) bool {
	return s.HasAllScopes(scope)
}

func (s *Session) HasAllScopes(scopes ...string) bool {
	return len(s.missingScopes(scopes)) == 0
}

func (s *Session) missingScopes(required []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []string
	for _, scope := range required {
		if _, ok := s.scopes[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return missing
}

// checkScopes fails with a *ScopeError when client-side checks are on and
// a required scope is absent.
func (s *Session) checkScopes(required ...string) error {
	if !s.client.CheckScopes {
		return nil
	}
	if missing := s.missingScopes(required); len(missing) > 0 {
		return &ScopeError{Missing: missing}
	}
	return nil
}

// markPasswordChanged clears the reset flag. The token keeps its narrow
// scopes until the next login.
func (s *Session) markPasswordChanged() {
	s.mu.Lock()
	s.mustRotate = false
	s.mu.Unlock()
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// AuthService exchanges email and password for an access token.
type AuthService struct {
	Store     store.Store
	Hasher    *cryptox.Hasher
	Signer    jwtx.Signer
	Issuer    string
	Audience  []string
	AccessTTL time.Duration
	Metrics   *Metrics
	Now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

// burnVerify spends the same hashing work as a real verification so
// unknown accounts cannot be told apart by response time.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("worklog-timing-equaliser")
	})
	_ = s.Hasher.Verify(password, s.dummyHash)
}

// Login verifies credentials and issues an access token. Every failure is
// ErrInvalidCredentials. Accounts flagged for a password reset receive a
// token limited to profile:read and password:change.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		s.burnVerify(password)
		s.Metrics.login(OutcomeUnknown)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.Metrics.login(OutcomeError)
		return nil, err
	}

	if !s.Hasher.Verify(password, user.PasswordHash) || !user.Active {
		l.Info("login failed", slog.String("user_id", user.ID), slog.Bool("active", user.Active))
		s.Metrics.login(OutcomeInvalid)
		return nil, ErrInvalidCredentials
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		if newHash, err := s.Hasher.Hash(password); err == nil {
			if err := s.Store.Users().RehashPassword(ctx, user.ID, newHash); err != nil {
				l.Warn("failed to upgrade password hash", slog.String("user_id", user.ID), slog.Any("error", err))
			} else {
				l.Info("password hash upgraded", slog.String("user_id", user.ID))
			}
		}
	}

	scopes := domain.ScopesFor(user)
	ttl := s.accessTTL()
	claims := jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject:               user.ID,
		Role:                  string(user.Role),
		Name:                  user.Name,
		Scopes:                scopes,
		PasswordResetRequired: user.PasswordResetRequired,
		Issuer:                s.Issuer,
		Audience:              s.Audience,
		TTL:                   ttl,
		Now:                   s.now(),
	})
	token, err := s.Signer.Sign(claims)
	if err != nil {
		s.Metrics.login(OutcomeError)
		return nil, err
	}

	l.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.Bool("password_reset_required", user.PasswordResetRequired),
	)
	s.Metrics.login(OutcomeSuccess)
	return &domain.AccessToken{
		Token:                 token,
		TokenType:             "Bearer",
		ExpiresIn:             ttl,
		Scopes:                scopes,
		PasswordResetRequired: user.PasswordResetRequired,
	}, nil
}

package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// BootstrapService creates the first administrator of an empty system.
// An empty Token disables it.
type BootstrapService struct {
	Users *UserService
	Token string

	// mu serialises bootstrap so two concurrent callers cannot both see an
	// empty users table.
	mu sync.Mutex
}

func (s *BootstrapService) Enabled() bool { return s.Token != "" }

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Users.Store.Users().IsEmpty(ctx)
	return !empty, err
}

// Bootstrap creates an admin holding a generated temporary password that
// must be changed at first login.
func (s *BootstrapService) Bootstrap(ctx context.Context, token, email, name string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	if !s.Enabled() || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		log.Warn("bootstrap rejected: bad token")
		return domain.User{}, "", ErrBootstrapUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	done, err := s.IsBootstrapped(ctx)
	switch {
	case err != nil:
		return domain.User{}, "", err
	case done:
		log.Warn("bootstrap rejected: users already exist")
		return domain.User{}, "", ErrBootstrapAlready
	}

	admin, temporary, err := s.Users.CreateUser(ctx, CreateUserInput{
		Email: email,
		Name:  name,
		Role:  domain.RoleAdmin,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	log.Info("bootstrap complete", slog.String("admin_user_id", admin.ID))
	return admin, temporary, nil
}

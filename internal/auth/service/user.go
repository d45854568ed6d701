package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/idx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// UserService implements the admin user-management flows.
type UserService struct {
	Store     store.Store
	Hasher    *cryptox.Hasher
	Validator *cryptox.StrengthValidator
	Generator *cryptox.PasswordGenerator

	// TemporaryPasswordLength defaults to cryptox.DefaultPasswordLength.
	TemporaryPasswordLength int
}

// CreateUserInput is the admin "create user" request.
type CreateUserInput struct {
	Email    string
	Name     string
	Role     domain.Role
	Password string // empty: generate a temporary password
}

func (s *UserService) validator() *cryptox.StrengthValidator {
	if s.Validator == nil {
		return cryptox.DefaultStrengthValidator()
	}
	return s.Validator
}

// temporaryPassword generates a password that satisfies the active policy.
// The configured length is raised to the policy minimum.
func (s *UserService) temporaryPassword() (string, error) {
	gen := s.Generator
	if gen == nil || gen.Validator == nil {
		gen = &cryptox.PasswordGenerator{Validator: s.validator()}
	}
	n := s.TemporaryPasswordLength
	if n <= 0 {
		n = cryptox.DefaultPasswordLength
	}
	n = max(n, gen.Validator.MinLength)
	return gen.Generate(n)
}

// CreateUser creates an account. When in.Password is empty a temporary
// password is generated, returned once, and the account must change it at
// first login. A supplied password must pass the strength policy.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	email := domain.NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, "", ErrInvalidEmail
	}
	if !in.Role.Valid() {
		return domain.User{}, "", ErrInvalidRole
	}
	name := strings.TrimSpace(in.Name)

	password := in.Password
	var temporary string
	if password == "" {
		var err error
		if temporary, err = s.temporaryPassword(); err != nil {
			return domain.User{}, "", err
		}
		password = temporary
	} else if res := s.validator().ValidateWithInputs(password, email, name); !res.IsValid {
		return domain.User{}, "", &PasswordPolicyError{Result: res}
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, "", err
	}

	user := domain.User{
		ID:                    idx.New().String(),
		Email:                 email,
		Name:                  name,
		Role:                  in.Role,
		PasswordHash:          hash,
		PasswordResetRequired: temporary != "",
		Active:                true,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrEmailTaken
		}
		return domain.User{}, "", err
	}

	created, err := s.Store.Users().GetUserByID(ctx, user.ID)
	if err != nil {
		return domain.User{}, "", err
	}

	l.Info("user created",
		slog.String("user_id", created.ID),
		slog.String("role", string(created.Role)),
		slog.Bool("temporary_password", temporary != ""),
	)
	return created, temporary, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// RequirePasswordReset forces the user to change their password at next login.
func (s *UserService) RequirePasswordReset(ctx context.Context, userID string) error {
	if !idx.Valid(userID) {
		return ErrUserNotFound
	}
	err := s.Store.Users().SetPasswordResetRequired(ctx, userID, true)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err == nil {
		slogx.FromContext(ctx).Info("password reset required", slog.String("user_id", userID))
	}
	return err
}

// IssueTemporaryPassword replaces the user's password with a generated one
// (admin-forced reset). The new credential clears any reset token and the
// account must change the password at next login.
func (s *UserService) IssueTemporaryPassword(ctx context.Context, userID string) (string, error) {
	if !idx.Valid(userID) {
		return "", ErrUserNotFound
	}
	temporary, err := s.temporaryPassword()
	if err != nil {
		return "", err
	}
	hash, err := s.Hasher.Hash(temporary)
	if err != nil {
		return "", err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.Users().SetPasswordResetRequired(ctx, userID, true)
	})
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("temporary password issued", slog.String("user_id", userID))
	return temporary, nil
}

// SetActive enables or disables login for the user.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) error {
	if !idx.Valid(userID) {
		return ErrUserNotFound
	}
	err := s.Store.Users().SetActive(ctx, userID, active)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err == nil {
		slogx.FromContext(ctx).Info("user active state changed",
			slog.String("user_id", userID), slog.Bool("active", active))
	}
	return err
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/notify"
	"github.com/aussiebroadwan/worklog/internal/auth/store"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// mailTimeout bounds a single delivery attempt.
const mailTimeout = 30 * time.Second

// PasswordService runs the forgot/reset/change password flows.
type PasswordService struct {
	Store     store.Store
	Hasher    *cryptox.Hasher
	Validator *cryptox.StrengthValidator
	Tokens    *cryptox.ResetTokenIssuer
	Mailer    notify.Mailer
	ResetURL  string
	Metrics   *Metrics
	Now       func() time.Time

	mail sync.WaitGroup
}

func (s *PasswordService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *PasswordService) validator() *cryptox.StrengthValidator {
	if s.Validator == nil {
		return cryptox.DefaultStrengthValidator()
	}
	return s.Validator
}

// RequestReset issues a reset token for the account behind email and mails
// the link. Unknown and inactive accounts are silently ignored so the
// caller's response never reveals whether an account exists. Mail is
// delivered in the background; delivery failures are logged, not returned.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = domain.NormalizeEmail(email)
	if email == "" {
		s.Metrics.resetRequest(OutcomeInvalid)
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !user.Active) {
		l.Debug("password reset requested for unknown or inactive account")
		s.Metrics.resetRequest(OutcomeUnknown)
		return nil
	}
	if err != nil {
		s.Metrics.resetRequest(OutcomeError)
		return err
	}

	token, err := s.Tokens.Issue()
	if err != nil {
		s.Metrics.resetRequest(OutcomeError)
		return err
	}

	// Overwrites any outstanding token, which supersedes it.
	if err := s.Store.Users().SetPasswordResetToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		s.Metrics.resetRequest(OutcomeError)
		return err
	}

	link, err := notify.ResetLink(s.ResetURL, token.Plaintext)
	if err != nil {
		s.Metrics.resetRequest(OutcomeError)
		return err
	}
	msg, err := notify.RenderPasswordReset(notify.PasswordResetData{
		Name:      user.Name,
		Email:     user.Email,
		ResetURL:  link,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		s.Metrics.resetRequest(OutcomeError)
		return err
	}

	s.sendAsync(ctx, msg, user.ID)
	l.Info("password reset token issued", slog.String("user_id", user.ID))
	s.Metrics.resetRequest(OutcomeSuccess)
	return nil
}

// CheckResetToken reports whether token can still be used to reset a
// password. Any failure is ErrResetTokenInvalid.
func (s *PasswordService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.lookupResetToken(ctx, token)
	return err
}

// ResetPassword sets a new password using a reset token. The token is
// consumed atomically; of several concurrent attempts with the same token
// at most one succeeds.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := slogx.FromContext(ctx)

	user, err := s.lookupResetToken(ctx, token)
	if err != nil {
		s.Metrics.reset(OutcomeInvalid)
		return err
	}

	if res := s.validator().ValidateWithInputs(newPassword, user.Email, user.Name); !res.IsValid {
		s.Metrics.reset(OutcomeRejected)
		return &PasswordPolicyError{Result: res}
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		s.Metrics.reset(OutcomeError)
		return err
	}

	ok, err := s.Store.Users().ConsumePasswordResetToken(ctx, user.ID, user.PasswordResetTokenHash, newHash, s.now())
	if err != nil {
		s.Metrics.reset(OutcomeError)
		return err
	}
	if !ok {
		// Consumed, superseded or expired since the lookup.
		s.Metrics.reset(OutcomeInvalid)
		return ErrResetTokenInvalid
	}

	l.Info("password reset completed", slog.String("user_id", user.ID))
	s.Metrics.reset(OutcomeSuccess)
	s.notifyChanged(ctx, user)
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one. It also clears the reset-required flag and any
// outstanding reset token.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.change(OutcomeUnknown)
		return ErrUserNotFound
	}
	if err != nil {
		s.Metrics.change(OutcomeError)
		return err
	}

	if !user.Active || !s.Hasher.Verify(currentPassword, user.PasswordHash) {
		s.Metrics.change(OutcomeInvalid)
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		s.Metrics.change(OutcomeRejected)
		return ErrPasswordReused
	}
	if res := s.validator().ValidateWithInputs(newPassword, user.Email, user.Name); !res.IsValid {
		s.Metrics.change(OutcomeRejected)
		return &PasswordPolicyError{Result: res}
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		s.Metrics.change(OutcomeError)
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		s.Metrics.change(OutcomeError)
		return err
	}

	l.Info("password changed", slog.String("user_id", user.ID))
	s.Metrics.change(OutcomeSuccess)
	s.notifyChanged(ctx, user)
	return nil
}

// CheckStrength returns the advisory strength report for password. inputs
// are personal values (name, email) the password must not contain.
func (s *PasswordService) CheckStrength(password string, inputs ...string) cryptox.StrengthResult {
	return s.validator().ValidateWithInputs(password, inputs...)
}

// Wait blocks until background mail deliveries have finished.
func (s *PasswordService) Wait() {
	s.mail.Wait()
}

// lookupResetToken resolves a presented token to its user. Unknown,
// malformed, superseded and expired tokens are all ErrResetTokenInvalid;
// an expired pair is cleared on the way out.
func (s *PasswordService) lookupResetToken(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrResetTokenInvalid
	}

	user, err := s.Store.Users().GetUserByResetTokenHash(ctx, cryptox.HashResetToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrResetTokenInvalid
	}
	if err != nil {
		return domain.User{}, err
	}

	if !cryptox.VerifyResetToken(token, user.PasswordResetTokenHash) || !user.Active {
		return domain.User{}, ErrResetTokenInvalid
	}

	if cryptox.ResetTokenExpired(user.PasswordResetTokenExpiresAt, s.now()) {
		if err := s.Store.Users().ClearPasswordResetToken(ctx, user.ID); err != nil {
			slogx.FromContext(ctx).Warn("failed to clear expired reset token",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
		return domain.User{}, ErrResetTokenInvalid
	}

	return user, nil
}

func (s *PasswordService) notifyChanged(ctx context.Context, user domain.User) {
	msg, err := notify.RenderPasswordChanged(notify.PasswordChangedData{
		Name:      user.Name,
		Email:     user.Email,
		ChangedAt: s.now(),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to render password changed mail", slog.Any("error", err))
		return
	}
	s.sendAsync(ctx, msg, user.ID)
}

// sendAsync delivers msg in the background so response timing does not
// depend on the mail relay.
func (s *PasswordService) sendAsync(ctx context.Context, msg notify.Message, userID string) {
	if s.Mailer == nil {
		return
	}
	l := slogx.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		ctx, cancel := context.WithTimeout(ctx, mailTimeout)
		defer cancel()

		if err := s.Mailer.Send(ctx, msg); err != nil {
			s.Metrics.mailFailure()
			l.Error("failed to send mail",
				slog.String("user_id", userID),
				slog.String("subject", msg.Subject),
				slog.Any("error", err))
		}
	}()
}

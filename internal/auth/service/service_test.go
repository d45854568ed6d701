package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/notify"
	"github.com/aussiebroadwan/worklog/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/worklog/pkg/cryptox"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Tr4vel-Expense-Ledger"

// fakeMailer records every message it is asked to send.
type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC().Truncate(time.Millisecond)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store     *sqlite.Store
	mailer    *fakeMailer
	clock     *clock
	metrics   *Metrics
	hasher    *cryptox.Hasher
	users     *UserService
	passwords *PasswordService
	auth      *AuthService
	keys      *jwtx.KeySet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jwtx.NewEdDSASignerFromKey("", priv)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	f := &fixture{
		store:   s,
		mailer:  &fakeMailer{},
		clock:   newClock(),
		metrics: metrics,
		hasher:  &cryptox.Hasher{Memory: 1024, Iterations: 1, Parallelism: 1},
		keys:    keys,
	}
	validator := cryptox.DefaultStrengthValidator()

	f.users = &UserService{Store: s, Hasher: f.hasher, Validator: validator}
	f.passwords = &PasswordService{
		Store:     s,
		Hasher:    f.hasher,
		Validator: validator,
		Tokens:    &cryptox.ResetTokenIssuer{Validity: time.Hour, Now: f.clock.Now},
		Mailer:    f.mailer,
		ResetURL:  "https://worklog.test/reset",
		Metrics:   metrics,
		Now:       f.clock.Now,
	}
	f.auth = &AuthService{
		Store:     s,
		Hasher:    f.hasher,
		Signer:    signer,
		Issuer:    "https://worklog.test",
		Audience:  []string{"worklog"},
		AccessTTL: 10 * time.Minute,
		Metrics:   metrics,
	}
	return f
}

func (f *fixture) createUser(t *testing.T, email string) domain.User {
	t.Helper()
	u, temp, err := f.users.CreateUser(context.Background(), CreateUserInput{
		Email:    email,
		Name:     "Casey Holt",
		Role:     domain.RoleUser,
		Password: strongPassword,
	})
	require.NoError(t, err)
	require.Empty(t, temp)
	return u
}

var tokenRE = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// requestToken asks for a reset and returns the plaintext token from the mail.
func (f *fixture) requestToken(t *testing.T, email string) string {
	t.Helper()
	before := len(f.mailer.messages())
	require.NoError(t, f.passwords.RequestReset(context.Background(), email))
	f.passwords.Wait()

	msgs := f.mailer.messages()
	require.Len(t, msgs, before+1)
	m := tokenRE.FindStringSubmatch(msgs[len(msgs)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

func TestRequestResetUnknownAccountIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.passwords.RequestReset(ctx, "nobody@example.com"))
	require.NoError(t, f.passwords.RequestReset(ctx, "   "))
	f.passwords.Wait()

	require.Empty(t, f.mailer.messages())
	require.InDelta(t, 1, testutilCounter(t, f.metrics.ResetRequests, OutcomeUnknown), 0)
}

func TestRequestResetInactiveAccountIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")
	require.NoError(t, f.users.SetActive(ctx, u.ID, false))

	require.NoError(t, f.passwords.RequestReset(ctx, "casey@example.com"))
	f.passwords.Wait()
	require.Empty(t, f.mailer.messages())
}

func TestResetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")

	token := f.requestToken(t, "Casey@Example.com")
	msg := f.mailer.messages()[0]
	require.Equal(t, "casey@example.com", msg.To)
	require.Contains(t, msg.Text, "https://worklog.test/reset?token=")

	stored, err := f.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotContains(t, stored.PasswordResetTokenHash, token)
	require.Equal(t, cryptox.HashResetToken(token), stored.PasswordResetTokenHash)

	require.NoError(t, f.passwords.CheckResetToken(ctx, token))

	const newPassword = "Quarterly-Billing-77"
	require.NoError(t, f.passwords.ResetPassword(ctx, token, newPassword))
	f.passwords.Wait()

	// Password changed notice.
	msgs := f.mailer.messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "Your work-log password was changed", msgs[1].Subject)

	// Token is single use.
	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, token), ErrResetTokenInvalid)
	require.ErrorIs(t, f.passwords.ResetPassword(ctx, token, "Another-Strong-Pass9"), ErrResetTokenInvalid)

	_, err = f.auth.Login(ctx, "casey@example.com", strongPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	tok, err := f.auth.Login(ctx, "casey@example.com", newPassword)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
}

func TestResetTokenSupersededByNewRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "casey@example.com")

	first := f.requestToken(t, "casey@example.com")
	second := f.requestToken(t, "casey@example.com")
	require.NotEqual(t, first, second)

	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, first), ErrResetTokenInvalid)
	require.NoError(t, f.passwords.CheckResetToken(ctx, second))
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")

	token := f.requestToken(t, "casey@example.com")

	f.clock.Advance(59 * time.Minute)
	require.NoError(t, f.passwords.CheckResetToken(ctx, token))

	f.clock.Advance(time.Minute)
	require.ErrorIs(t, f.passwords.ResetPassword(ctx, token, "Quarterly-Billing-77"), ErrResetTokenInvalid)

	// The expired pair is cleared on lookup.
	stored, err := f.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PasswordResetTokenHash)
	require.Nil(t, stored.PasswordResetTokenExpiresAt)
}

func TestResetPasswordPolicyRejectionKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "casey@example.com")
	token := f.requestToken(t, "casey@example.com")

	err := f.passwords.ResetPassword(ctx, token, "password")
	var policyErr *PasswordPolicyError
	require.ErrorAs(t, err, &policyErr)
	require.False(t, policyErr.Result.IsValid)
	require.NotEmpty(t, policyErr.Result.Errors)

	err = f.passwords.ResetPassword(ctx, token, "Casey-Holt-2024x")
	require.ErrorAs(t, err, &policyErr)
	require.Contains(t, policyErr.Result.Errors, cryptox.MsgContainsInputs)

	require.NoError(t, f.passwords.CheckResetToken(ctx, token))
	require.Equal(t, float64(2), testutilCounter(t, f.metrics.Resets, OutcomeRejected))
}

func TestResetPasswordConcurrentAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "casey@example.com")
	token := f.requestToken(t, "casey@example.com")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := f.passwords.ResetPassword(ctx, token, "Quarterly-Billing-7"+string(rune('a'+i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrResetTokenInvalid):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, success)
	require.Equal(t, workers-1, rejected)
}

func TestResetTokenMalformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, ""), ErrResetTokenInvalid)
	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, "not-a-token"), ErrResetTokenInvalid)
}

func TestMailFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("relay down")
	f.createUser(t, "casey@example.com")

	require.NoError(t, f.passwords.RequestReset(context.Background(), "casey@example.com"))
	f.passwords.Wait()
	require.Len(t, f.mailer.messages(), 1)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")
	token := f.requestToken(t, "casey@example.com")

	require.ErrorIs(t, f.passwords.ChangePassword(ctx, u.ID, "wrong", "Quarterly-Billing-77"), ErrInvalidCredentials)
	require.ErrorIs(t, f.passwords.ChangePassword(ctx, u.ID, strongPassword, strongPassword), ErrPasswordReused)
	require.ErrorIs(t, f.passwords.ChangePassword(ctx, "missing", strongPassword, "Quarterly-Billing-77"), ErrUserNotFound)

	var policyErr *PasswordPolicyError
	require.ErrorAs(t, f.passwords.ChangePassword(ctx, u.ID, strongPassword, "short"), &policyErr)

	require.NoError(t, f.passwords.ChangePassword(ctx, u.ID, strongPassword, "Quarterly-Billing-77"))
	// A change also invalidates any outstanding reset token.
	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, token), ErrResetTokenInvalid)
}

func TestCheckStrength(t *testing.T) {
	f := newFixture(t)

	weak := f.passwords.CheckStrength("password")
	require.False(t, weak.IsValid)

	strong := f.passwords.CheckStrength(strongPassword, "casey@example.com")
	require.True(t, strong.IsValid)
	require.Empty(t, strong.Errors)
}

func TestCreateUserWithTemporaryPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, temp, err := f.users.CreateUser(ctx, CreateUserInput{
		Email: " Dana@Example.com ",
		Name:  "Dana",
		Role:  domain.RoleManager,
	})
	require.NoError(t, err)
	require.Len(t, temp, cryptox.DefaultPasswordLength)
	require.Equal(t, "dana@example.com", u.Email)
	require.True(t, u.PasswordResetRequired)
	require.True(t, u.Active)

	tok, err := f.auth.Login(ctx, "dana@example.com", temp)
	require.NoError(t, err)
	require.True(t, tok.PasswordResetRequired)
	require.ElementsMatch(t, []string{domain.ScopeProfileRead, domain.ScopePasswordChange}, tok.Scopes)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "casey@example.com")

	_, _, err := f.users.CreateUser(ctx, CreateUserInput{Email: "CASEY@example.com", Name: "Dup", Role: domain.RoleUser})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = f.users.CreateUser(ctx, CreateUserInput{Email: "x@example.com", Name: "X", Role: "owner"})
	require.ErrorIs(t, err, ErrInvalidRole)

	for _, email := range []string{"not-an-email", "", "Jane <jane@example.com>", "<jane@example.com>", "jane@example.com (Jane)"} {
		_, _, err = f.users.CreateUser(ctx, CreateUserInput{Email: email, Name: "X", Role: domain.RoleUser})
		require.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}

	var policyErr *PasswordPolicyError
	_, _, err = f.users.CreateUser(ctx, CreateUserInput{Email: "y@example.com", Name: "Y", Role: domain.RoleUser, Password: "qwerty"})
	require.ErrorAs(t, err, &policyErr)
}

func TestIssueTemporaryPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")
	token := f.requestToken(t, "casey@example.com")

	temp, err := f.users.IssueTemporaryPassword(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, temp)

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.PasswordResetRequired)
	require.ErrorIs(t, f.passwords.CheckResetToken(ctx, token), ErrResetTokenInvalid)

	_, err = f.auth.Login(ctx, "casey@example.com", strongPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "casey@example.com", temp)
	require.NoError(t, err)

	_, err = f.users.IssueTemporaryPassword(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestTemporaryPasswordMeetsLongerMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	validator := cryptox.NewStrengthValidator(cryptox.Policy{MinLength: 20})

	for name, users := range map[string]*UserService{
		"validator":                {Store: f.store, Hasher: f.hasher, Validator: validator},
		"generator with policy":    {Store: f.store, Hasher: f.hasher, Validator: validator, Generator: &cryptox.PasswordGenerator{Validator: validator}},
		"generator without policy": {Store: f.store, Hasher: f.hasher, Validator: validator, Generator: &cryptox.PasswordGenerator{}, TemporaryPasswordLength: 12},
	} {
		t.Run(name, func(t *testing.T) {
			u, temp, err := users.CreateUser(ctx, CreateUserInput{
				Email: strings.ReplaceAll(name, " ", "-") + "@example.com",
				Name:  "Long",
				Role:  domain.RoleUser,
			})
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(temp), 20)
			require.True(t, validator.Validate(temp).IsValid, "created: %v", validator.Validate(temp).Errors)

			temp, err = users.IssueTemporaryPassword(ctx, u.ID)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(temp), 20)
			require.True(t, validator.Validate(temp).IsValid, "issued: %v", validator.Validate(temp).Errors)
		})
	}
}

func TestRequirePasswordResetAndDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")

	require.NoError(t, f.users.RequirePasswordReset(ctx, u.ID))
	tok, err := f.auth.Login(ctx, "casey@example.com", strongPassword)
	require.NoError(t, err)
	require.True(t, tok.PasswordResetRequired)

	require.NoError(t, f.users.SetActive(ctx, u.ID, false))
	_, err = f.auth.Login(ctx, "casey@example.com", strongPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.ErrorIs(t, f.users.SetActive(ctx, "missing", true), ErrUserNotFound)
	require.ErrorIs(t, f.users.RequirePasswordReset(ctx, "missing"), ErrUserNotFound)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")

	_, err := f.auth.Login(ctx, "nobody@example.com", strongPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	tok, err := f.auth.Login(ctx, "CASEY@example.com", strongPassword)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, 10*time.Minute, tok.ExpiresIn)
	require.False(t, tok.PasswordResetRequired)

	claims, err := jwtx.NewCommonEdDSA(f.keys, "https://worklog.test", []string{"worklog"}).Verify(tok.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, string(domain.RoleUser), claims.Role)
	require.ElementsMatch(t, domain.RoleUser.Scopes(), claims.Scopes)

	require.Equal(t, float64(1), testutilCounter(t, f.metrics.Logins, OutcomeSuccess))
	require.Equal(t, float64(1), testutilCounter(t, f.metrics.Logins, OutcomeUnknown))
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "casey@example.com")

	// Stronger parameters make the stored hash stale.
	f.auth.Hasher = &cryptox.Hasher{Memory: 2048, Iterations: 1, Parallelism: 1}
	_, err := f.auth.Login(ctx, "casey@example.com", strongPassword)
	require.NoError(t, err)

	got, err := f.users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, u.PasswordHash, got.PasswordHash)
	require.False(t, f.auth.Hasher.NeedsRehash(got.PasswordHash))
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := &BootstrapService{Users: f.users, Token: "bootstrap-secret"}

	_, _, err := b.Bootstrap(ctx, "wrong", "root@example.com", "Root")
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)

	admin, temp, err := b.Bootstrap(ctx, "bootstrap-secret", "root@example.com", "Root")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.True(t, admin.PasswordResetRequired)
	require.NotEmpty(t, temp)

	_, _, err = b.Bootstrap(ctx, "bootstrap-secret", "other@example.com", "Other")
	require.ErrorIs(t, err, ErrBootstrapAlready)

	disabled := &BootstrapService{Users: f.users}
	_, _, err = disabled.Bootstrap(ctx, "", "x@example.com", "X")
	require.ErrorIs(t, err, ErrBootstrapUnauthorized)
}

func TestHousekeepingClearsExpiredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "casey@example.com")
	f.createUser(t, "dana@example.com")
	f.requestToken(t, "casey@example.com")

	f.clock.Advance(30 * time.Minute)
	fresh := f.requestToken(t, "dana@example.com")

	hk := NewHousekeepingService(f.store, nil, time.Hour)
	hk.Metrics = f.metrics
	hk.Now = f.clock.Now

	require.Zero(t, hk.Cleanup(ctx))

	f.clock.Advance(45 * time.Minute)
	require.Equal(t, int64(1), hk.Cleanup(ctx))
	require.NoError(t, f.passwords.CheckResetToken(ctx, fresh))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ExpiredCleared))
}

func TestHousekeepingStartStop(t *testing.T) {
	f := newFixture(t)
	hk := NewHousekeepingService(f.store, nil, 10*time.Millisecond)
	hk.Stop()

	hk.Start()
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
	hk.Stop()
}

func testutilCounter(t *testing.T, vec *prometheus.CounterVec, outcome string) float64 {
	t.Helper()
	return testutil.ToFloat64(vec.WithLabelValues(outcome))
}

func TestBootstrapConcurrent(t *testing.T) {
	f := newFixture(t)
	b := &BootstrapService{Users: f.users, Token: "bootstrap-secret"}

	errs := make([]error, 5)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := fmt.Sprintf("root%d@example.com", i)
			_, _, errs[i] = b.Bootstrap(context.Background(), "bootstrap-secret", email, "Root")
		}()
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, ErrBootstrapAlready)
	}
	require.Equal(t, 1, created)
}

package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Issuer:                "worklog-auth-test",
		BootstrapToken:        "bootstrap-secret",
		DatabaseFile:          filepath.Join(dir, "auth.db"),
		PepperFile:            filepath.Join(dir, "pepper"),
		SigningKeyFile:        filepath.Join(dir, "signing.pem"),
		AccessTokenTTL:        15 * time.Minute,
		PasswordTokenValidity: time.Hour,
		PasswordHashCost:      1,
		PasswordMinLength:     8,
		PasswordResetURL:      "http://localhost:3000/reset-password",
		MailMode:              MailModeLog,
		Env:                   "test",
		LogLevel:              "error",
		LogFormat:             "text",
		ShutdownGracePeriod:   time.Second,
		HousekeepingInterval:  time.Hour,
		RateLimits:            httpx.DefaultRateLimitProfiles(),
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.MailMode = "fax"

	_, err := New(cfg)
	require.ErrorContains(t, err, "MAIL_MODE")
}

func TestApplicationServesWiredRoutes(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	a.housekeepingService.Start()
	t.Cleanup(func() { require.NoError(t, a.Shutdown()) })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	client := authsdk.NewSDKClient(srv.URL)
	ctx := t.Context()

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	jwks, err := client.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	boot, err := client.Bootstrap(ctx, "bootstrap-secret", authsdk.BootstrapRequest{
		Email: "owner@example.com",
		Name:  "Owner",
	})
	require.NoError(t, err)
	require.NotEmpty(t, boot.TemporaryPassword)

	tok, err := client.Login(ctx, "owner@example.com", boot.TemporaryPassword)
	require.NoError(t, err)
	require.True(t, tok.PasswordResetRequired)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "go_goroutines"))
	require.Contains(t, string(body), `worklog_auth_logins_total{outcome="success"} 1`)
}

func TestSigningKeySurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := InitAuthKeys(cfg, discardLogger())
	require.NoError(t, err)
	second, err := InitAuthKeys(cfg, discardLogger())
	require.NoError(t, err)
	require.Equal(t, first.Signer.KID(), second.Signer.KID())

	token, err := first.Signer.Sign(newTestClaims(cfg.Issuer))
	require.NoError(t, err)
	_, err = second.Verifier.Verify(token)
	require.NoError(t, err)
}

func TestEphemeralSigningKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.SigningKeyFile = ""

	first, err := InitAuthKeys(cfg, discardLogger())
	require.NoError(t, err)
	second, err := InitAuthKeys(cfg, discardLogger())
	require.NoError(t, err)
	require.NotEqual(t, first.Signer.KID(), second.Signer.KID())
	require.True(t, first.KeySet.IsReady())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClaims(issuer string) jwtx.Claims {
	return jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject: "01HZX3J4K5M6N7P8Q9R0S1T2V3",
		Role:    "user",
		Scopes:  []string{"profile:read"},
		Issuer:  issuer,
		TTL:     time.Minute,
		Now:     time.Now(),
	})
}

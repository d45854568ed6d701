//go:build e2e

package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies that a wrong password and an unknown
// account are rejected with the same error.
func TestInvalidCredentials(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	bootstrapService(t, client)

	_, wrongPassword := client.Login(t.Context(), adminEmail, "wrong-password")
	assertAPIError(t, wrongPassword, authsdk.ErrInvalidCredentials, "Invalid password should be rejected")
	assertStatus(t, wrongPassword, http.StatusUnauthorized, "Invalid password")

	_, unknown := client.Login(t.Context(), "nobody@example.com", "wrong-password")
	assertAPIError(t, unknown, authsdk.ErrInvalidCredentials, "Unknown account should be rejected")

	require.Equal(t, wrongPassword.Error(), unknown.Error(), "Responses must not reveal whether the account exists")
}

// TestInvalidAccessToken verifies protected endpoints reject invalid tokens.
func TestInvalidAccessToken(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	bootstrapService(t, client)

	invalid := client.NewSessionFromToken("invalid-token-12345", "profile:read", 3600)
	_, err := invalid.Me(t.Context())
	assertStatus(t, err, http.StatusUnauthorized, "Invalid token should be rejected")
}

// TestDeactivatedUserCannotLogin verifies an admin can lock an account out.
func TestDeactivatedUserCannotLogin(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)
	admin := bootstrapService(t, client)
	ctx := t.Context()

	created, err := admin.CreateUser(ctx, authsdk.CreateUserRequest{
		Email:    "contractor@example.com",
		Name:     "Contractor",
		Role:     "user",
		Password: "Invoice-Ledger-77",
	})
	require.NoError(t, err)

	performLogin(t, client, "contractor@example.com", "Invoice-Ledger-77")

	require.NoError(t, admin.DeactivateUser(ctx, created.User.ID))
	_, err = client.Login(ctx, "contractor@example.com", "Invoice-Ledger-77")
	assertAPIError(t, err, authsdk.ErrInvalidCredentials, "Inactive account should be rejected")

	require.NoError(t, admin.ActivateUser(ctx, created.User.ID))
	performLogin(t, client, "contractor@example.com", "Invoice-Ledger-77")
}

//go:build e2e

package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestBootstrapSuccess verifies bootstrap creates an admin that must change
// its temporary password before receiving admin scopes.
func TestBootstrapSuccess(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	session := bootstrapService(t, client)
	require.False(t, session.PasswordResetRequired())
	require.True(t, session.HasAllScopes("users:read", "users:write", "password:change"))

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, adminEmail, me.Email)
	require.Equal(t, "admin", me.Role)
	require.False(t, me.PasswordResetRequired)
}

// TestBootstrapIdempotency verifies that bootstrap can only be called once.
func TestBootstrapIdempotency(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	bootstrapService(t, client)

	_, err := client.Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		Email: "another@example.com",
		Name:  "Another Admin",
	})
	assertAPIError(t, err, authsdk.ErrBootstrapDenied, "Second bootstrap should be rejected")
}

// TestBootstrapWrongToken verifies bootstrap requires the configured token.
func TestBootstrapWrongToken(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	_, err := client.Bootstrap(t.Context(), "wrong-token", authsdk.BootstrapRequest{
		Email: adminEmail,
		Name:  adminName,
	})
	assertAPIError(t, err, authsdk.ErrBootstrapDenied, "Wrong bootstrap token should be rejected")
	assertStatus(t, err, http.StatusForbidden, "Wrong bootstrap token")

	// The service is still bootstrappable with the right token.
	bootstrapService(t, client)
}

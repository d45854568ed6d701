package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoleScopes(t *testing.T) {
	tests := []struct {
		role  Role
		valid bool
		has   []string
		lacks []string
	}{
		{RoleAdmin, true, []string{ScopeUsersWrite, ScopeUsersRead, ScopePasswordChange}, nil},
		{RoleManager, true, []string{ScopeUsersRead}, []string{ScopeUsersWrite}},
		{RoleUser, true, []string{ScopeProfileRead, ScopePasswordChange}, []string{ScopeUsersRead}},
		{Role("owner"), false, nil, []string{ScopeProfileRead}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			require.Equal(t, tt.valid, tt.role.Valid())
			scopes := tt.role.Scopes()
			for _, s := range tt.has {
				require.Contains(t, scopes, s)
			}
			for _, s := range tt.lacks {
				require.NotContains(t, scopes, s)
			}
		})
	}
}

func TestScopesCopy(t *testing.T) {
	s := RoleAdmin.Scopes()
	s[0] = "mutated"
	require.Equal(t, ScopeProfileRead, RoleAdmin.Scopes()[0])
}

func TestScopesForResetRequired(t *testing.T) {
	u := User{Role: RoleAdmin, PasswordResetRequired: true}
	require.ElementsMatch(t, []string{ScopeProfileRead, ScopePasswordChange}, ScopesFor(u))

	u.PasswordResetRequired = false
	require.Equal(t, RoleAdmin.Scopes(), ScopesFor(u))
}

func TestCredential(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	u := User{PasswordHash: "h", PasswordResetTokenHash: "t", PasswordResetTokenExpiresAt: &exp}

	c := u.Credential()
	require.True(t, c.HasResetToken())
	require.Equal(t, "h", c.PasswordHash)

	u.PasswordResetTokenExpiresAt = nil
	require.False(t, u.Credential().HasResetToken())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM\n"))
}

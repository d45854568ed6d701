package domain

import "slices"

// Role is one of the fixed work-log roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Scopes carried in access tokens.
const (
	ScopeProfileRead    = "profile:read"
	ScopeProfileWrite   = "profile:write"
	ScopePasswordChange = "password:change"
	ScopeUsersRead      = "users:read"
	ScopeUsersWrite     = "users:write"
)

var roleScopes = map[Role][]string{
	RoleAdmin:   {ScopeProfileRead, ScopeProfileWrite, ScopePasswordChange, ScopeUsersRead, ScopeUsersWrite},
	RoleManager: {ScopeProfileRead, ScopeProfileWrite, ScopePasswordChange, ScopeUsersRead},
	RoleUser:    {ScopeProfileRead, ScopeProfileWrite, ScopePasswordChange},
}

// resetRequiredScopes is all a token gets while the account must change its
// password.
var resetRequiredScopes = []string{ScopeProfileRead, ScopePasswordChange}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleScopes[r]
	return ok
}

// Scopes returns a copy of the scopes granted to the role.
func (r Role) Scopes() []string {
	return slices.Clone(roleScopes[r])
}

// ScopesFor returns the scopes for an access token issued to u.
func ScopesFor(u User) []string {
	if u.PasswordResetRequired {
		return slices.Clone(resetRequiredScopes)
	}
	return u.Role.Scopes()
}

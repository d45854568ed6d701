package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Admin operations - require users:read or users:write

// ListUsers returns every account.
// Requires: users:read scope
func (s *Session) ListUsers(ctx context.Context) (*UserListResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/users", nil, nil, "users:read")
	if err != nil {
		return nil, err
	}

	var list UserListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateUser creates an account. When req.Password is empty the response
// carries a generated temporary password; it is shown only once.
// Requires: users:write scope
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/users",
		bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"},
		"users:write",
	)
	if err != nil {
		return nil, err
	}

	var created CreateUserResponse
	if err := decodeJSON(resp, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

// RequirePasswordReset forces the user to change their password at next login.
// Requires: users:write scope
func (s *Session) RequirePasswordReset(ctx context.Context, userID string) error {
	return s.userAction(ctx, userID, "require-password-reset")
}

// IssueTemporaryPassword replaces the user's password with a generated one
// and flags the account for a reset at next login.
// Requires: users:write scope
func (s *Session) IssueTemporaryPassword(ctx context.Context, userID string) (string, error) {
	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/users/"+url.PathEscape(userID)+"/temporary-password",
		nil,
		nil,
		"users:write",
	)
	if err != nil {
		return "", err
	}

	var tmp TemporaryPasswordResponse
	if err := decodeJSON(resp, &tmp, http.StatusOK); err != nil {
		return "", err
	}
	return tmp.TemporaryPassword, nil
}

// DeactivateUser disables login for the user.
// Requires: users:write scope
func (s *Session) DeactivateUser(ctx context.Context, userID string) error {
	return s.userAction(ctx, userID, "deactivate")
}

// ActivateUser re-enables login for the user.
// Requires: users:write scope
func (s *Session) ActivateUser(ctx context.Context, userID string) error {
	return s.userAction(ctx, userID, "activate")
}

func (s *Session) userAction(ctx context.Context, userID, action string) error {
	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/users/"+url.PathEscape(userID)+"/"+action,
		nil,
		nil,
		"users:write",
	)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

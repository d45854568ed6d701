package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Me returns the account behind the session.
// Requires: profile:read scope
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil, nil, "profile:read")
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the session user's password.
// Requires: password:change scope
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	data := url.Values{
		"current_password": {currentPassword},
		"new_password":     {newPassword},
	}

	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/password/change",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		"password:change",
	)
	if err != nil {
		return err
	}

	if err := checkStatusNoContent(resp); err != nil {
		return err
	}
	s.markPasswordChanged()
	return nil
}

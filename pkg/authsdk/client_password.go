package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges email and password for an access token.
//
// Every login failure is reported as ErrInvalidCredentials, whatever the
// underlying reason.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	data := url.Values{
		"email":    {email},
		"password": {password},
	}

	resp, err := c.postForm(ctx, "/v1/auth/login", data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// ForgotPassword asks the service to mail a reset link. The service answers
// the same way whether or not the email belongs to an account.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.postForm(ctx, "/v1/password/forgot", url.Values{"email": {email}})
	if err != nil {
		return err
	}

	var accepted AcceptedResponse
	return decodeJSON(resp, &accepted, http.StatusAccepted)
}

// CheckResetToken reports whether a reset token from a mailed link is still
// usable. It returns ErrInvalidToken (matched with errors.Is) otherwise.
func (c *SDKClient) CheckResetToken(ctx context.Context, token string) error {
	path := "/v1/password/reset?" + url.Values{"token": {token}}.Encode()
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}

	var status ResetTokenStatusResponse
	return decodeJSON(resp, &status, http.StatusOK)
}

// ResetPassword sets a new password using a reset token. A rejected password
// is returned as a *ValidationError listing every policy violation.
func (c *SDKClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	data := url.Values{
		"token":    {token},
		"password": {newPassword},
	}

	resp, err := c.postForm(ctx, "/v1/password/reset", data)
	if err != nil {
		return err
	}

	var status StatusResponse
	return decodeJSON(resp, &status, http.StatusOK)
}

// CheckPasswordStrength returns the advisory strength report for a
// candidate password.
func (c *SDKClient) CheckPasswordStrength(ctx context.Context, password string) (*StrengthResponse, error) {
	resp, err := c.postForm(ctx, "/v1/password/strength", url.Values{"password": {password}})
	if err != nil {
		return nil, err
	}

	var strength StrengthResponse
	if err := decodeJSON(resp, &strength, http.StatusOK); err != nil {
		return nil, err
	}
	return &strength, nil
}

func (c *SDKClient) postForm(ctx context.Context, path string, data url.Values) (*http.Response, error) {
	return c.doRequest(ctx, http.MethodPost, path, strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

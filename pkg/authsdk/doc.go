/*
Package authsdk provides a client SDK for the work-log identity service.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated operations (login, password reset, bootstrap, health)
  - Session: operations that need an access token

Create an SDKClient to talk to public endpoints:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Ask for a reset link; the answer is the same for unknown emails.
	err := client.ForgotPassword(ctx, "jane@example.com")

	// Validate the token from the mailed link, then set a new password.
	err = client.CheckResetToken(ctx, token)
	err = client.ResetPassword(ctx, token, newPassword)

Log in to create a Session:

	session, err := client.AuthenticateWithPassword(ctx, email, password)
	if session.PasswordResetRequired() {
		err = session.ChangePassword(ctx, password, newPassword)
	}

	me, err := session.Me(ctx)

# Errors

Service errors are returned as *APIError and can be matched against the
predefined values with errors.Is:

	if errors.Is(err, authsdk.ErrInvalidToken) {
		// the reset link is unknown, expired, superseded or already used
	}

Password policy failures are returned as *ValidationError carrying every
violated rule in Errors.

# Sessions

Access tokens are short-lived and are not refreshed. Once a session's token
expires, calls return ErrSessionExpired and the caller must log in again.
Client-side scope checks can be disabled with SDKClient.CheckScopes.
*/
package authsdk

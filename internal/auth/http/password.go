package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// PasswordHandler serves the forgot, reset, change and strength endpoints.
type PasswordHandler struct {
	PasswordService *service.PasswordService
}

// HandleForgot starts a password reset.
//
//	@Summary		Request a password reset
//	@Description	Mails a single-use reset link when the email belongs to an active account. The response is identical whether or not it does.
//	@Tags			Password
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email	formData	string					true	"Account email"
//	@Success		202		{object}	authsdk.AcceptedResponse	"Request accepted"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many requests"
//	@Router			/v1/password/forgot [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !parseForm(w, r) {
		return
	}

	// Errors are logged only; the answer must not depend on the account.
	if err := h.PasswordService.RequestReset(ctx, r.PostFormValue("email")); err != nil {
		slogx.FromContext(ctx).Error("password reset request failed", "err", err)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.AcceptedResponse{Status: "accepted"})
}

// HandleCheckToken reports whether a reset token is still usable.
//
//	@Summary		Check a reset token
//	@Tags			Password
//	@Produce		json
//	@Param			token	query		string								true	"Reset token from the emailed link"
//	@Success		200		{object}	authsdk.ResetTokenStatusResponse	"Token is usable"
//	@Failure		400		{object}	authsdk.ErrorResponse				"Token is invalid or expired"
//	@Router			/v1/password/reset [get].
func (h *PasswordHandler) HandleCheckToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	httpx.NoCache(w)
	if err := h.PasswordService.CheckResetToken(ctx, r.URL.Query().Get("token")); err != nil {
		if !writeServiceError(w, err) {
			slogx.FromContext(ctx).Error("reset token check failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ResetTokenStatusResponse{Valid: true})
}

// HandleReset sets a new password with a reset token.
//
//	@Summary		Reset a password
//	@Description	Consumes the reset token and sets the new password. A token can be used once.
//	@Tags			Password
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			token		formData	string							true	"Reset token"
//	@Param			password	formData	string							true	"New password"
//	@Success		200			{object}	authsdk.StatusResponse			"Password changed"
//	@Failure		400			{object}	authsdk.ErrorResponse			"Token is invalid or expired"
//	@Failure		422			{object}	authsdk.ValidationErrorResponse	"Password rejected by policy"
//	@Router			/v1/password/reset [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !parseForm(w, r) || !requireFields(w, r, "token", "password") {
		return
	}

	httpx.NoCache(w)
	err := h.PasswordService.ResetPassword(ctx, r.PostFormValue("token"), r.PostFormValue("password"))
	if err != nil {
		if !writeServiceError(w, err) {
			slogx.FromContext(ctx).Error("password reset failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{Status: "ok"})
}

// HandleChange changes the caller's password.
//
//	@Summary		Change password
//	@Tags			Password
//	@Security		BearerAuth
//	@Accept			x-www-form-urlencoded
//	@Param			current_password	formData	string	true	"Current password"
//	@Param			new_password		formData	string	true	"New password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse			"Current password incorrect or reused"
//	@Failure		401	{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		422	{object}	authsdk.ValidationErrorResponse	"Password rejected by policy"
//	@Router			/v1/password/change [post].
func (h *PasswordHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	if !parseForm(w, r) || !requireFields(w, r, "current_password", "new_password") {
		return
	}

	err := h.PasswordService.ChangePassword(ctx, userID,
		r.PostFormValue("current_password"), r.PostFormValue("new_password"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrCurrentPasswordIncorrect.WriteError(w)
	case writeServiceError(w, err):
	default:
		slogx.FromContext(ctx).Error("password change failed", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// HandleStrength scores a candidate password.
//
//	@Summary		Check password strength
//	@Description	Advisory report for a candidate password. Optional email and name are treated as personal inputs the password must not contain.
//	@Tags			Password
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			password	formData	string						true	"Candidate password"
//	@Param			email		formData	string						false	"Email the password must not contain"
//	@Param			name		formData	string						false	"Name the password must not contain"
//	@Success		200			{object}	authsdk.StrengthResponse	"Strength report"
//	@Router			/v1/password/strength [post].
func (h *PasswordHandler) HandleStrength(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	res := h.PasswordService.CheckStrength(r.PostFormValue("password"),
		r.PostFormValue("email"), r.PostFormValue("name"))

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.StrengthResponse{
		IsValid:     res.IsValid,
		Score:       res.Score,
		Errors:      nonNil(res.Errors),
		Suggestions: nonNil(res.Suggestions),
		Entropy:     res.Entropy,
		CrackTime:   res.CrackTime,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP exchanges email and password for an access token.
//
//	@Summary		Log in
//	@Description	Verifies the credentials and returns an EdDSA-signed access token. Accounts flagged for a password reset get a token that only carries profile:read and password:change.
//	@Tags			Auth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email		formData	string							true	"Account email"
//	@Param			password	formData	string							true	"Account password"
//	@Success		200			{object}	authsdk.TokenResponse			"Access token"
//	@Failure		401			{object}	authsdk.ErrorResponse			"Invalid credentials"
//	@Failure		422			{object}	authsdk.ValidationErrorResponse	"Missing fields"
//	@Failure		429			{object}	authsdk.ErrorResponse			"Too many attempts"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if !parseForm(w, r) || !requireFields(w, r, "email", "password") {
		return
	}

	token, err := h.AuthService.Login(ctx, r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		if !writeServiceError(w, err) {
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:           token.Token,
		TokenType:             token.TokenType,
		ExpiresIn:             int(token.ExpiresIn.Seconds()),
		Scope:                 strings.Join(token.Scopes, " "),
		PasswordResetRequired: token.PasswordResetRequired,
	})
}

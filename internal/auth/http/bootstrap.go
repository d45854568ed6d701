package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// BootstrapTokenHeader carries the pre-configured bootstrap token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the service
//	@Description	Creates the first administrator with a temporary password. Only available when a bootstrap token is configured and no user exists yet.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token"
//	@Param			request				body		authsdk.BootstrapRequest		true	"First administrator"
//	@Success		201					{object}	authsdk.BootstrapResponse		"Administrator and temporary password"
//	@Failure		403					{object}	authsdk.ErrorResponse			"Missing or invalid token, or already bootstrapped"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled"
//	@Failure		422					{object}	authsdk.ValidationErrorResponse	"Invalid fields"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.BootstrapService.Enabled() {
		authsdk.NewAPIError(http.StatusNotFound, authsdk.ErrorCodeNotFound, "Bootstrap is disabled").WriteError(w)
		return
	}

	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		authsdk.NewAPIError(http.StatusForbidden, authsdk.ErrorCodeBootstrapDenied,
			BootstrapTokenHeader+" header is required").WriteError(w)
		return
	}

	var req authsdk.BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	admin, temporary, err := h.BootstrapService.Bootstrap(ctx, token, req.Email, req.Name)
	switch {
	case err == nil:
		// The only time the temporary password leaves the service.
		httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
			User:              toUserResponse(admin),
			TemporaryPassword: temporary,
		})
	case errors.Is(err, service.ErrBootstrapAlready):
		authsdk.NewAPIError(http.StatusForbidden, authsdk.ErrorCodeBootstrapDenied,
			"Users already exist").WriteError(w)
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		authsdk.ErrBootstrapDenied.WriteError(w)
	case writeServiceError(w, err):
	default:
		slogx.FromContext(ctx).Error("bootstrap failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/worklog/internal/auth/domain"
	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/aussiebroadwan/worklog/pkg/httpx"
	"github.com/aussiebroadwan/worklog/pkg/slogx"
)

// UsersHandler serves the caller's profile and the admin user endpoints.
type UsersHandler struct {
	UserService *service.UserService
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:                    u.ID,
		Email:                 u.Email,
		Name:                  u.Name,
		Role:                  string(u.Role),
		Active:                u.Active,
		PasswordResetRequired: u.PasswordResetRequired,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

// HandleMe returns the authenticated user.
//
//	@Summary		Get the current user
//	@Description	Requires the 'profile:read' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"The current user"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if !writeServiceError(w, err) {
			log.Warn("failed to load user", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleList lists every account.
//
//	@Summary		List users
//	@Description	Requires the 'users:read' scope.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserListResponse	"All users ordered by email"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Missing scope"
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.UserService.ListUsers(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list users", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	resp := authsdk.UserListResponse{Users: make([]authsdk.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate creates an account.
//
//	@Summary		Create a user
//	@Description	Requires the 'users:write' scope. Without a password a temporary one is generated, returned once, and must be changed at first login.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest		true	"New user"
//	@Success		201		{object}	authsdk.CreateUserResponse		"Created user"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Email already registered"
//	@Failure		422		{object}	authsdk.ValidationErrorResponse	"Invalid fields or password rejected by policy"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, temporary, err := h.UserService.CreateUser(ctx, service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
		Password: req.Password,
	})
	if err != nil {
		if !writeServiceError(w, err) {
			slogx.FromContext(ctx).Error("failed to create user", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.CreateUserResponse{
		User:              toUserResponse(user),
		TemporaryPassword: temporary,
	})
}

// HandleRequirePasswordReset forces a password change at next login.
//
//	@Summary		Require a password reset
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User ID"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/users/{id}/require-password-reset [post].
func (h *UsersHandler) HandleRequirePasswordReset(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.UserService.RequirePasswordReset(r.Context(), r.PathValue("id")))
}

// HandleTemporaryPassword replaces the password with a generated one.
//
//	@Summary		Issue a temporary password
//	@Description	Admin-forced reset. The temporary password is returned once and must be changed at next login.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string								true	"User ID"
//	@Success		200	{object}	authsdk.TemporaryPasswordResponse	"Temporary password"
//	@Failure		404	{object}	authsdk.ErrorResponse				"Unknown user"
//	@Router			/v1/users/{id}/temporary-password [post].
func (h *UsersHandler) HandleTemporaryPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	temporary, err := h.UserService.IssueTemporaryPassword(ctx, r.PathValue("id"))
	if err != nil {
		if !writeServiceError(w, err) {
			slogx.FromContext(ctx).Error("failed to issue temporary password", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TemporaryPasswordResponse{TemporaryPassword: temporary})
}

// HandleDeactivate blocks login for a user.
//
//	@Summary		Deactivate a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User ID"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/users/{id}/deactivate [post].
func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.UserService.SetActive(r.Context(), r.PathValue("id"), false))
}

// HandleActivate re-enables login for a user.
//
//	@Summary		Activate a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User ID"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/users/{id}/activate [post].
func (h *UsersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.noContent(w, r, h.UserService.SetActive(r.Context(), r.PathValue("id"), true))
}

func (h *UsersHandler) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !writeServiceError(w, err) {
		slogx.FromContext(r.Context()).Error("user action failed", "path", r.URL.Path, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

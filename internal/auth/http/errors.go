package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/worklog/internal/auth/service"
	"github.com/aussiebroadwan/worklog/pkg/authsdk"
	"github.com/go-playground/validator/v10"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 64 << 10

var validate = validator.New()

// writeServiceError renders a known service error and reports whether it
// did. Callers log anything else and answer server_error.
func writeServiceError(w http.ResponseWriter, err error) bool {
	var policy *service.PasswordPolicyError
	switch {
	case errors.As(err, &policy):
		writePolicyError(w, policy)
	case errors.Is(err, service.ErrResetTokenInvalid):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrPasswordReused):
		authsdk.ErrPasswordReused.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidRole):
		(&authsdk.ValidationError{
			Message: "validation failed for some fields",
			Details: map[string]string{"role": "must be one of admin, manager, user"},
		}).WriteError(w)
	case errors.Is(err, service.ErrInvalidEmail):
		(&authsdk.ValidationError{
			Message: "validation failed for some fields",
			Details: map[string]string{"email": "must be a valid email address"},
		}).WriteError(w)
	default:
		return false
	}
	return true
}

func writePolicyError(w http.ResponseWriter, e *service.PasswordPolicyError) {
	(&authsdk.ValidationError{
		Message:     "password does not meet the policy",
		Details:     map[string]string{"password": strings.Join(e.Result.Errors, "; ")},
		Errors:      e.Result.Errors,
		Suggestions: e.Result.Suggestions,
	}).WriteError(w)
}

// decodeJSON decodes and validates a JSON body into dst. It writes the error
// response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return false
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[jsonFieldName(fe)] = validationMessage(fe)
		}
		(&authsdk.ValidationError{
			Message: "validation failed for some fields",
			Details: details,
		}).WriteError(w)
		return false
	}
	return true
}

// parseForm parses a urlencoded body and writes 400 on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

func requireFields(w http.ResponseWriter, r *http.Request, names ...string) bool {
	details := map[string]string{}
	for _, n := range names {
		if strings.TrimSpace(r.PostFormValue(n)) == "" {
			details[n] = "is required"
		}
	}
	if len(details) == 0 {
		return true
	}
	(&authsdk.ValidationError{
		Message: "validation failed for some fields",
		Details: details,
	}).WriteError(w)
	return false
}

func jsonFieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

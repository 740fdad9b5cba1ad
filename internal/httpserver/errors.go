package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
)

const internalDetail = "internal server error"

type errorMapping struct {
	err    error
	status int
	detail string
}

// Checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{domain.ErrUsernameTaken, http.StatusBadRequest, "Username already taken"},
	{domain.ErrRoleExists, http.StatusBadRequest, "Role already exists"},
	{domain.ErrConflict, http.StatusInternalServerError, "Conflicting concurrent update, please retry"},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect username or password"},
	{domain.ErrWrongOldPassword, http.StatusUnauthorized, "Old password is incorrect"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "Could not validate credentials"},

	{domain.ErrForbidden, http.StatusForbidden, domain.ErrForbidden.Error()},

	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrRoleNotFound, http.StatusNotFound, "Role not found"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},

	{domain.ErrEmptyUsername, http.StatusBadRequest, "Username is required"},
	{domain.ErrEmptyRoleName, http.StatusBadRequest, "Role name is required"},
	{domain.ErrWeakPassword, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", domain.MinPasswordLength)},
	{domain.ErrPasswordTooLong, http.StatusBadRequest, fmt.Sprintf("Password must be at most %d bytes", domain.MaxPasswordLength)},
	{domain.ErrValidation, http.StatusBadRequest, "Invalid request"},

	{domain.ErrLastAdmin, http.StatusBadRequest, "Cannot remove the last admin user"},
	{domain.ErrProtectedRole, http.StatusBadRequest, fmt.Sprintf("The %q role cannot be deleted", domain.AdminRole)},
	{domain.ErrInvariant, http.StatusBadRequest, "Operation would violate a system invariant"},
}

// StatusFor maps err to the HTTP status and the detail message shown to the
// client. Unknown errors become a 500 without leaking their text.
func StatusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.detail
		}
	}
	return http.StatusInternalServerError, internalDetail
}

// HTTPErrorHandler renders every error as {"detail": "..."}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", status, "error", err)
	}
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, echo.Map{"detail": detail})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

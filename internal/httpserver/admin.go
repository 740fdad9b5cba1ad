package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/rbac_auth/internal/logging"
	authmw "github.com/Skotchmaster/rbac_auth/internal/middleware/auth"
	"github.com/Skotchmaster/rbac_auth/internal/service"
	"github.com/Skotchmaster/rbac_auth/internal/transport"
)

// AdminHTTP serves role and user administration. Every route sits behind
// RequireAuth and RequireRole("admin").
type AdminHTTP struct {
	Svc *service.AuthService
}

func actor(c echo.Context) string {
	if id := authmw.IdentityFrom(c); id != nil {
		return id.Username
	}
	return ""
}

func (h *AdminHTTP) CreateRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_create_role")

	var req transport.RoleCreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_role_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("create_role_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.Svc.CreateRole(ctx, actor(c), req.Name); err != nil {
		return err
	}
	l.Info("create_role_success", "role", req.Name)
	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: fmt.Sprintf("Role '%s' created", req.Name)})
}

func (h *AdminHTTP) DeleteRole(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("role_name")

	if err := h.Svc.DeleteRole(ctx, actor(c), name); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("delete_role_success", "role", name)
	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: fmt.Sprintf("Role '%s' deleted", name)})
}

func (h *AdminHTTP) UpdateUserRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_update_user_role")

	var req transport.UserRoleUpdateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_role_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("update_user_role_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.Svc.SetUserRole(ctx, actor(c), req.Username, req.Role); err != nil {
		return err
	}
	l.Info("update_user_role_success", "username", req.Username, "role", req.Role)
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Msg: fmt.Sprintf("User '%s' now has role '%s'", req.Username, req.Role),
	})
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")

	if err := h.Svc.DeleteUser(ctx, actor(c), username); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("delete_user_success", "username", username)
	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: fmt.Sprintf("User '%s' deleted", username)})
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	users, err := h.Svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.NewUserResponses(users))
}

func (h *AdminHTTP) ListRoles(c echo.Context) error {
	roles, err := h.Svc.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

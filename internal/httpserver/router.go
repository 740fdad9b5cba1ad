package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
	authmw "github.com/Skotchmaster/rbac_auth/internal/middleware/auth"
	"github.com/Skotchmaster/rbac_auth/internal/tokens"
)

const readinessTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	AuthHandler  *AuthHTTP
	AdminHandler *AdminHTTP
	Tokens       *tokens.Issuer
	DB           Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	authMW := authmw.New(d.Tokens, d.AuthHandler.Svc)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)

	// route-level middleware keeps unknown paths a plain 404
	private := []echo.MiddlewareFunc{authMW.RequireAuth}
	admin := []echo.MiddlewareFunc{authMW.RequireAuth, authMW.RequireRole(domain.AdminRole)}

	e.GET("/dashboard", d.AuthHandler.Dashboard, private...)
	e.POST("/change-password", d.AuthHandler.ChangePassword, private...)

	e.GET("/admin", d.AuthHandler.AdminDashboard, admin...)
	e.GET("/users", d.AdminHandler.ListUsers, admin...)
	e.POST("/users/role", d.AdminHandler.UpdateUserRole, admin...)
	e.DELETE("/users/:username", d.AdminHandler.DeleteUser, admin...)
	e.GET("/roles", d.AdminHandler.ListRoles, admin...)
	e.POST("/roles", d.AdminHandler.CreateRole, admin...)
	e.DELETE("/roles/:role_name", d.AdminHandler.DeleteRole, admin...)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()
	if err := d.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "database unavailable"})
	}
	return c.NoContent(http.StatusOK)
}

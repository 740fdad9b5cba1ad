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

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.Register(ctx, req.Username, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: "User created successfully"})
}

// Login accepts a JSON body or an OAuth2 password-grant form.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("login_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
	})
}

func (h *AuthHTTP) Dashboard(c echo.Context) error {
	identity := authmw.IdentityFrom(c)
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Msg: fmt.Sprintf("Welcome to your dashboard, %s!", identity.Username),
	})
}

func (h *AuthHTTP) AdminDashboard(c echo.Context) error {
	identity := authmw.IdentityFrom(c)
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Msg: fmt.Sprintf("Welcome admin %s!", identity.Username),
	})
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("change_password_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity := authmw.IdentityFrom(c)
	if err := h.Svc.ChangePassword(ctx, identity.Username, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Msg: "Password updated successfully"})
}

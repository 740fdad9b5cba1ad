// Package auth guards echo routes with bearer tokens and role checks.
package auth

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
	"github.com/Skotchmaster/rbac_auth/internal/tokens"
)

const (
	claimsKey   = "token_claims"
	identityKey = "identity"

	credentialsDetail = "Could not validate credentials"
)

// IdentityLoader resolves a token subject to the current stored identity.
type IdentityLoader interface {
	Identity(ctx context.Context, username string) (*domain.Identity, error)
}

type Middleware struct {
	Tokens *tokens.Issuer
	Users  IdentityLoader

	bearer echo.MiddlewareFunc
}

func New(issuer *tokens.Issuer, users IdentityLoader) *Middleware {
	m := &Middleware{Tokens: issuer, Users: users}
	m.bearer = echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return issuer.Verify(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "error", err)
			return Unauthorized(err)
		},
	})
	return m
}

// Unauthorized builds the 401 returned for every missing, invalid or
// unresolvable token.
func Unauthorized(cause error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, credentialsDetail).SetInternal(cause)
}

// RequireAuth verifies the bearer token and loads the caller's identity from
// the store. Roles are never read from the token.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.bearer(func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx)

		claims, ok := c.Get(claimsKey).(*tokens.Claims)
		if !ok || claims.Subject == "" {
			l.Warn("auth_failed", "status", 401, "reason", "token has no subject")
			return Unauthorized(tokens.ErrMalformed)
		}

		identity, err := m.Users.Identity(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				l.Warn("auth_failed", "status", 401, "reason", "subject no longer exists", "username", claims.Subject)
				return Unauthorized(err)
			}
			l.Error("auth_failed", "status", 500, "reason", "cannot load identity", "error", err)
			return err
		}

		c.Set(identityKey, identity)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("username", identity.Username))))
		return next(c)
	})
}

// RequireRole rejects callers that do not hold role. It must run after
// RequireAuth.
func (m *Middleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if err := domain.RequireRole(identity, role); err != nil {
				l := logging.FromContext(c.Request().Context())
				if errors.Is(err, domain.ErrUnauthenticated) {
					l.Warn("auth_failed", "status", 401, "error", err)
					return Unauthorized(err)
				}
				l.Warn("access_denied", "status", 403, "required_role", role)
				return echo.NewHTTPError(http.StatusForbidden, domain.ErrForbidden.Error()).SetInternal(err)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by RequireAuth, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/tokens"
)

type stubUsers map[string]*domain.Identity

func (s stubUsers) Identity(_ context.Context, username string) (*domain.Identity, error) {
	if username == "broken" {
		return nil, errors.New("db down")
	}
	id, ok := s[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return id, nil
}

func newTestEcho(t *testing.T) (*echo.Echo, *tokens.Issuer) {
	t.Helper()
	issuer := tokens.NewIssuer([]byte("test-secret"), time.Minute)
	users := stubUsers{
		"bob":   {UserID: 2, Username: "bob", Roles: []string{"user"}},
		"alice": {UserID: 1, Username: "alice", Roles: []string{"admin"}},
	}
	m := New(issuer, users)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, IdentityFrom(c).Username)
	}, m.RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, m.RequireAuth, m.RequireRole(domain.AdminRole))
	e.GET("/unguarded-admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, m.RequireRole(domain.AdminRole))
	return e, issuer
}

func do(e *echo.Echo, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, issuer *tokens.Issuer, subject string) string {
	t.Helper()
	tok, _, err := issuer.Issue(subject)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRequireAuth(t *testing.T) {
	e, issuer := newTestEcho(t)

	other := tokens.NewIssuer([]byte("other-secret"), time.Minute)
	expired := tokens.NewIssuer([]byte("test-secret"), time.Minute)
	expired.Now = func() time.Time { return time.Now().Add(-time.Hour) }

	cases := []struct {
		name   string
		authz  string
		status int
	}{
		{"valid token", bearer(t, issuer, "bob"), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic Ym9iOnB3", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"foreign signature", bearer(t, other, "bob"), http.StatusUnauthorized},
		{"expired", bearer(t, expired, "bob"), http.StatusUnauthorized},
		{"unknown subject", bearer(t, issuer, "ghost"), http.StatusUnauthorized},
		{"store failure", bearer(t, issuer, "broken"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, "/me", tc.authz)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "bob", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e, issuer := newTestEcho(t)

	assert.Equal(t, http.StatusOK, do(e, "/admin", bearer(t, issuer, "alice")).Code)
	assert.Equal(t, http.StatusForbidden, do(e, "/admin", bearer(t, issuer, "bob")).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", "").Code)
}

func TestRequireRole_WithoutIdentity(t *testing.T) {
	e, _ := newTestEcho(t)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/unguarded-admin", "").Code)
}

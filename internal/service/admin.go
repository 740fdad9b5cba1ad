package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/events"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
	"github.com/Skotchmaster/rbac_auth/internal/models"
)

// Admin operations. Callers must have passed domain.RequireRole(identity,
// domain.AdminRole); actor is the admin's username, recorded on audit events.

func logAdminError(ctx context.Context, op string, err error) {
	l := logging.FromContext(ctx).With("svc", "admin."+op)
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvariant),
		errors.Is(err, domain.ErrValidation):
		l.Warn(op+"_failed", "error", err)
	default:
		l.Error(op+"_failed", "status", 500, "error", err)
	}
}

func (s *AuthService) CreateRole(ctx context.Context, actor, name string) (*models.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrEmptyRoleName
	}
	role, err := s.Repo.CreateRole(ctx, name)
	if err != nil {
		logAdminError(ctx, "create_role", err)
		return nil, err
	}

	ev := events.New(events.RoleCreated, "")
	ev.Role, ev.Actor = name, actor
	s.publish(ctx, ev)
	return role, nil
}

// DeleteRole removes a role and its memberships. The admin role is protected
// because deleting it would strip every admin at once.
func (s *AuthService) DeleteRole(ctx context.Context, actor, name string) error {
	if name == domain.AdminRole {
		logAdminError(ctx, "delete_role", domain.ErrProtectedRole)
		return domain.ErrProtectedRole
	}
	if err := s.Repo.DeleteRole(ctx, name); err != nil {
		logAdminError(ctx, "delete_role", err)
		return err
	}

	ev := events.New(events.RoleDeleted, "")
	ev.Role, ev.Actor = name, actor
	s.publish(ctx, ev)
	return nil
}

// SetUserRole replaces the user's whole role set with exactly role.
func (s *AuthService) SetUserRole(ctx context.Context, actor, username, role string) (*models.User, error) {
	user, err := s.Repo.SetRoles(ctx, username, []string{role})
	if err != nil {
		logAdminError(ctx, "set_user_role", err)
		return nil, err
	}

	ev := events.New(events.UserRoleUpdated, username)
	ev.Role, ev.Actor = role, actor
	s.publish(ctx, ev)
	return user, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor, username string) error {
	if err := s.Repo.DeleteUser(ctx, username); err != nil {
		logAdminError(ctx, "delete_user", err)
		return err
	}

	ev := events.New(events.UserDeleted, username)
	ev.Actor = actor
	s.publish(ctx, ev)
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.ListUsers(ctx)
	if err != nil {
		logAdminError(ctx, "list_users", err)
		return nil, err
	}
	return users, nil
}

func (s *AuthService) ListRoles(ctx context.Context) ([]string, error) {
	roles, err := s.Repo.ListRoles(ctx)
	if err != nil {
		logAdminError(ctx, "list_roles", err)
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/events"
	"github.com/Skotchmaster/rbac_auth/internal/hash"
	"github.com/Skotchmaster/rbac_auth/internal/logging"
	"github.com/Skotchmaster/rbac_auth/internal/models"
	"github.com/Skotchmaster/rbac_auth/internal/repo"
	"github.com/Skotchmaster/rbac_auth/internal/tokens"
)

const publishTimeout = 5 * time.Second

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events events.Publisher
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming burns one bcrypt comparison so unknown usernames take as long
// to reject as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = hash.HashPassword("timing-equalizer")
	})
	hash.CheckPassword(dummyHash, password)
}

func (s *AuthService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Events.Publish(pubCtx, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", ev.Type, "error", err)
	}
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return domain.ErrEmptyUsername
	}
	return domain.ValidatePassword(password)
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if err := validateCredentials(username, password); err != nil {
		l.Warn("register_error", "status", 400, "reason", "validation", "error", err)
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return err
	}

	user := models.User{
		Username:       username,
		HashedPassword: pwHash,
	}
	if err := s.Repo.RegisterUser(ctx, &user, domain.DefaultRole); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			l.Warn("register_error", "reason", "user already exist", "error", err)
		} else {
			l.Error("register_error", "status", 500, "reason", "internal server error", "error", err)
		}
		return err
	}

	l.Info("register_success", "user_id", user.ID)
	s.publish(ctx, events.New(events.UserRegistered, username))
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		l.Warn("login_failed", "status", 401, "reason", "empty credentials")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.Repo.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			equalizeTiming(password)
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
			return nil, domain.ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.HashedPassword, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.Issue(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	l.Info("login_successful")
	s.publish(ctx, events.New(events.UserLoggedIn, user.Username))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
	}, nil
}

// Identity resolves the subject of a verified token against the store. Roles
// always come from the store, so role changes apply to live tokens at once
// while the token itself stays valid until it expires.
func (s *AuthService) Identity(ctx context.Context, username string) (*domain.Identity, error) {
	user, err := s.Repo.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.RoleNames(),
	}, nil
}

// ChangePassword replaces the caller's password hash. Tokens issued before the
// change are not revoked.
func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "username", username)

	if err := domain.ValidatePassword(newPassword); err != nil {
		l.Warn("change_password_failed", "status", 400, "error", err)
		return err
	}

	user, err := s.Repo.FindUser(ctx, username)
	if err != nil {
		l.Warn("change_password_failed", "error", err)
		return err
	}

	if !hash.CheckPassword(user.HashedPassword, oldPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "old password is incorrect")
		return domain.ErrWrongOldPassword
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, user.ID, pwHash); err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("change_password_success")
	s.publish(ctx, events.New(events.PasswordChanged, username))
	return nil
}

// Bootstrap makes sure the admin and default roles exist and creates the
// admin account when no user with that name exists yet. An existing user is
// never modified. It reports whether the admin account was created.
func (s *AuthService) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap", "username", username)

	if err := validateCredentials(username, password); err != nil {
		return false, err
	}

	for _, name := range []string{domain.AdminRole, domain.DefaultRole} {
		if _, err := s.Repo.EnsureRole(ctx, name); err != nil {
			return false, err
		}
	}

	_, err := s.Repo.FindUser(ctx, username)
	if err == nil {
		admins, cerr := s.Repo.CountRoleHolders(ctx, domain.AdminRole)
		if cerr != nil {
			return false, cerr
		}
		l.Info("bootstrap_skipped", "reason", "user exists", "admins", admins)
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{
		Username:       username,
		HashedPassword: pwHash,
	}
	if err := s.Repo.RegisterUser(ctx, &admin, domain.AdminRole); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// another instance seeded it concurrently
			l.Info("bootstrap_skipped", "reason", "created concurrently")
			return false, nil
		}
		return false, err
	}

	l.Info("admin user created", "user_id", admin.ID)
	return true, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateUser inserts u together with its role memberships. The roles must
// already exist. A username seen inside the transaction yields
// ErrUsernameTaken; losing a race on the unique index yields a bare ErrConflict.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := usernameFree(tx, u.Username); err != nil {
			return err
		}
		return insertUser(tx, u)
	})
}

// RegisterUser inserts u holding the single role roleName, creating the role
// when missing. Both writes share one transaction, so a rejected user never
// leaves a freshly created role behind. Losing the race to create the role
// retries once against the winner's row.
func (r *GormRepo) RegisterUser(ctx context.Context, u *models.User, roleName string) error {
	err := r.registerUser(ctx, u, roleName)
	if errors.Is(err, errRoleRace) {
		err = r.registerUser(ctx, u, roleName)
	}
	if errors.Is(err, errRoleRace) {
		return fmt.Errorf("ensure role %q: %w", roleName, domain.ErrConflict)
	}
	return err
}

var errRoleRace = errors.New("role created concurrently")

func (r *GormRepo) registerUser(ctx context.Context, u *models.User, roleName string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := usernameFree(tx, u.Username); err != nil {
			return err
		}
		// FOR SHARE holds off a concurrent DeleteRole until the membership is in
		var role models.Role
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where(models.Role{Name: roleName}).
			FirstOrCreate(&role).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errRoleRace
			}
			return err
		}
		u.Roles = []models.Role{role}
		return insertUser(tx, u)
	})
}

func usernameFree(tx *gorm.DB, username string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrUsernameTaken
	}
	return nil
}

func insertUser(tx *gorm.DB, u *models.User) error {
	if err := tx.Omit("Roles.*").Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user %q: %w", u.Username, domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *GormRepo) FindUser(ctx context.Context, username string) (*models.User, error) {
	return findUser(r.DB.WithContext(ctx), username)
}

func (r *GormRepo) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("hashed_password", hashedPassword)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetRoles replaces the entire role set of username with roleNames.
func (r *GormRepo) SetRoles(ctx context.Context, username string, roleNames []string) (*models.User, error) {
	var user *models.User
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = findUser(tx, username)
		if err != nil {
			return err
		}

		roles := make([]models.Role, 0, len(roleNames))
		seen := make(map[string]struct{}, len(roleNames))
		keepsAdmin := false
		for _, name := range roleNames {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			role, err := findRole(tx, name)
			if err != nil {
				return err
			}
			roles = append(roles, *role)
			keepsAdmin = keepsAdmin || name == domain.AdminRole
		}

		if !keepsAdmin {
			if err := guardLastAdmin(tx, user); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		if len(roles) > 0 {
			joins := make([]models.UserRole, 0, len(roles))
			for _, role := range roles {
				joins = append(joins, models.UserRole{UserID: user.ID, RoleID: role.ID})
			}
			if err := tx.Create(&joins).Error; err != nil {
				return err
			}
		}
		user.Roles = roles
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes username and its role memberships. The last user holding
// the admin role cannot be deleted.
func (r *GormRepo) DeleteUser(ctx context.Context, username string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		user, err := findUser(tx, username)
		if err != nil {
			return err
		}
		if err := guardLastAdmin(tx, user); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Preload("Roles", orderByID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureRole returns the role called name, creating it when missing.
func (r *GormRepo) EnsureRole(ctx context.Context, name string) (*models.Role, error) {
	db := r.DB.WithContext(ctx)
	role := models.Role{}
	err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent request created it first
		return findRole(db, name)
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRepo) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	role := models.Role{Name: name}
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrRoleExists
		}
		if err := tx.Create(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrRoleExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes the role and every membership that references it.
func (r *GormRepo) DeleteRole(ctx context.Context, name string) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		role, err := findRole(tx.Clauses(clause.Locking{Strength: "UPDATE"}), name)
		if err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, role.ID).Error
	})
}

func (r *GormRepo) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// CountRoleHolders reports how many users hold the role called name.
func (r *GormRepo) CountRoleHolders(ctx context.Context, name string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", name).
		Count(&n).Error
	return n, err
}

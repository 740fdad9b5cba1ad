package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/rbac_auth/internal/domain"
	"github.com/Skotchmaster/rbac_auth/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepo is the credential store. Every mutating method runs in a single
// transaction, so callers never observe a partial write.
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

func orderByID(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

func findUser(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := db.Preload("Roles", orderByID).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func findRole(db *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// roleHolderIDs lists the users holding roleName. On PostgreSQL the join rows
// are locked until the transaction ends so two concurrent admin removals
// cannot both see the other admin; SQLite drops the locking clause and relies
// on its single writer.
func roleHolderIDs(tx *gorm.DB, roleName string) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.UserRole{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", roleName).
		Pluck("user_roles.user_id", &ids).Error
	return ids, err
}

// guardLastAdmin fails when user is the only remaining admin.
func guardLastAdmin(tx *gorm.DB, user *models.User) error {
	if !user.HasRole(domain.AdminRole) {
		return nil
	}
	ids, err := roleHolderIDs(tx, domain.AdminRole)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id != user.ID {
			return nil
		}
	}
	return domain.ErrLastAdmin
}

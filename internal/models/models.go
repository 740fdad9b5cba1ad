package models

type User struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username       string `gorm:"uniqueIndex;not null"      json:"username"`
	HashedPassword string `gorm:"not null"                  json:"-"`
	Roles          []Role `gorm:"many2many:user_roles;"     json:"roles"`
}

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type UserRole struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	RoleID uint `gorm:"primaryKey" json:"role_id"`
}

func (UserRole) TableName() string { return "user_roles" }

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

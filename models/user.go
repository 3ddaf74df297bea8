package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleOwner      = "owner"
	RoleSuperadmin = "superadmin"
)

// User represents an authenticated account: a store owner or a platform superadmin.
// Users are the only rows not scoped to a store.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Auth0ID     string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name        string         `gorm:"not null" json:"name"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Role        string         `gorm:"not null;default:'owner'" json:"role"`
	Active      bool           `gorm:"not null" json:"active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	Stores      []Store        `gorm:"foreignKey:OwnerID" json:"stores,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsSuperadmin reports whether the user may use the /api/superadmin surface
func (u User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

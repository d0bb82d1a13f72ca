package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront buyer account. Admin accounts share the table with a
// distinct system role.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;type:text;not null"`
	DisplayName  string     `gorm:"column:display_name;type:text;not null"`
	SystemRole   string     `gorm:"column:system_role;type:text;not null;default:'buyer'"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

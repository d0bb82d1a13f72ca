package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores in-app notification payloads scoped to buyers.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title     string     `gorm:"type:text;not null"`
	Message   string     `gorm:"type:text;not null"`
	Link      *string    `gorm:"type:text"`
	ReadAt    *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;default:now()"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one append-only chat entry. Content may be empty-equivalent when
// a file rides along; FileURL/FileName are both set or both nil.
type Message struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"column:conversation_id;type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"column:sender_id;type:uuid;not null"`
	Content        string    `gorm:"column:content;type:text;not null"`
	FileURL        *string   `gorm:"column:file_url;type:text"`
	FileName       *string   `gorm:"column:file_name;type:text"`
	IsRead         bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

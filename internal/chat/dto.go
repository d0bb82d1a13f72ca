package chat

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
)

// AttachmentPlaceholder is stored as content for file-only messages so the
// NOT NULL column stays satisfied. Rendering blanks it back out.
const AttachmentPlaceholder = "[Lampiran]"

// imageExtensions is the inline-preview allow-list; anything else renders as
// a generic download.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".svg":  {},
}

// ConversationDTO is the transport shape for a chat thread.
type ConversationDTO struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Subject   string     `json:"subject"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MessageDTO is the transport shape for one chat entry.
type MessageDTO struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	FileURL        *string   `json:"file_url,omitempty"`
	FileName       *string   `json:"file_name,omitempty"`
	FileIsImage    bool      `json:"file_is_image"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageInput carries a message to append. Attachment may be nil.
type SendMessageInput struct {
	Content    string
	Attachment *Attachment
}

// Attachment is an uploaded file accompanying a message.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// FromConversationModel converts a conversation row into its transport shape.
func FromConversationModel(c *models.Conversation) *ConversationDTO {
	if c == nil {
		return nil
	}
	return &ConversationDTO{
		ID:        c.ID,
		OrderID:   c.OrderID,
		Subject:   c.Subject,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromConversationModels maps rows preserving order.
func FromConversationModels(rows []models.Conversation) []ConversationDTO {
	out := make([]ConversationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromConversationModel(&rows[i]))
	}
	return out
}

// FromMessageModel converts a message row. A file-only message carries the
// placeholder content in storage; the DTO blanks it so only the attachment
// renders.
func FromMessageModel(m *models.Message) *MessageDTO {
	if m == nil {
		return nil
	}

	content := m.Content
	if m.FileURL != nil && content == AttachmentPlaceholder {
		content = ""
	}

	return &MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        content,
		FileURL:        m.FileURL,
		FileName:       m.FileName,
		FileIsImage:    IsImageFileName(m.FileName),
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMessageModels maps rows preserving order.
func FromMessageModels(rows []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromMessageModel(&rows[i]))
	}
	return out
}

// IsImageFileName reports whether the file name matches the image
// extension allow-list.
func IsImageFileName(name *string) bool {
	if name == nil {
		return false
	}
	ext := strings.ToLower(path.Ext(*name))
	_, ok := imageExtensions[ext]
	return ok
}

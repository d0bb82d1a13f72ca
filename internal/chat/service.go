package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

// MaxAttachmentSize caps chat uploads; larger files are rejected before any
// storage call.
const MaxAttachmentSize = 10 << 20

const defaultSubject = "Konsultasi Desain"

// signedAttachmentTTL is the V2 signed URL maximum.
const signedAttachmentTTL = 7 * 24 * time.Hour

type orderLoader interface {
	FindByCodeForBuyer(ctx context.Context, orderCode string, buyerID uuid.UUID) (*models.Order, error)
}

type attachmentStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, data io.Reader) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

type messagePublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	ChatChannel(conversationID string) string
}

// Service exposes the chat operations.
type Service interface {
	ListConversations(ctx context.Context, buyerID uuid.UUID) ([]ConversationDTO, error)
	StartConversation(ctx context.Context, buyerID uuid.UUID, subject string) (*ConversationDTO, error)
	EnsureOrderConversation(ctx context.Context, buyerID uuid.UUID, orderCode string) (*ConversationDTO, error)
	ListMessages(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID) ([]MessageDTO, error)
	SendMessage(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID, input SendMessageInput) (*MessageDTO, error)
	StreamMessages(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID, emit func(MessageDTO) error) error
	Authorize(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID) (*ConversationDTO, error)
}

// ServiceParams packages the chat service dependencies.
type ServiceParams struct {
	Repo          Repository
	Orders        orderLoader
	Uploader      attachmentStore
	Bucket        string
	Publisher     messagePublisher
	Feed          LiveFeed
	MaxAttachment int64
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          Repository
	orders        orderLoader
	uploader      attachmentStore
	bucket        string
	publisher     messagePublisher
	feed          LiveFeed
	maxAttachment int64
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the chat synchronizer service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "chat repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order loader required")
	}
	if params.Publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "message publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	maxAttachment := params.MaxAttachment
	if maxAttachment <= 0 {
		maxAttachment = MaxAttachmentSize
	}
	return &service{
		repo:          params.Repo,
		orders:        params.Orders,
		uploader:      params.Uploader,
		bucket:        params.Bucket,
		publisher:     params.Publisher,
		feed:          params.Feed,
		maxAttachment: maxAttachment,
		logg:          params.Logger,
		now:           now,
	}, nil
}

func (s *service) ListConversations(ctx context.Context, buyerID uuid.UUID) ([]ConversationDTO, error) {
	rows, err := s.repo.ListConversationsByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	return FromConversationModels(rows), nil
}

func (s *service) StartConversation(ctx context.Context, buyerID uuid.UUID, subject string) (*ConversationDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = defaultSubject
	}

	conversation := &models.Conversation{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Subject: subject,
	}
	if _, err := s.repo.CreateConversation(ctx, conversation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
	}
	return FromConversationModel(conversation), nil
}

// EnsureOrderConversation creates the order-linked thread at most once per
// (buyer, order). The conditional insert rides on the partial unique index,
// so two tabs racing here converge on the same conversation id.
func (s *service) EnsureOrderConversation(ctx context.Context, buyerID uuid.UUID, orderCode string) (*ConversationDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}

	order, err := s.orders.FindByCodeForBuyer(ctx, strings.TrimSpace(orderCode), buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	orderID := order.ID
	candidate := &models.Conversation{
		ID:      uuid.New(),
		BuyerID: buyerID,
		OrderID: &orderID,
		Subject: fmt.Sprintf("Pesanan %s - %s", order.OrderCode, order.BrandName),
	}
	if err := s.repo.CreateConversationIfAbsent(ctx, candidate); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order conversation")
	}

	conversation, err := s.repo.FindConversationByBuyerAndOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order conversation")
	}

	// Only the insert winner seeds the greeting.
	if conversation.ID == candidate.ID {
		greeting := &models.Message{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			SenderID:       buyerID,
			Content: fmt.Sprintf(
				"Halo Admin, saya ingin berdiskusi tentang pesanan %s (%s).\nLayanan: %s",
				order.OrderCode,
				order.BrandName,
				strings.Join(order.Items.Names(), ", "),
			),
		}
		if _, err := s.repo.CreateMessage(ctx, greeting); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed greeting message")
		}
	}

	return FromConversationModel(conversation), nil
}

// Authorize loads the conversation and checks the actor may touch it.
func (s *service) Authorize(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID) (*ConversationDTO, error) {
	conversation, err := s.authorize(ctx, actorID, admin, conversationID)
	if err != nil {
		return nil, err
	}
	return FromConversationModel(conversation), nil
}

func (s *service) authorize(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.repo.FindConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}
	if !admin && conversation.BuyerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "conversation belongs to another buyer")
	}
	return conversation, nil
}

func (s *service) ListMessages(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID) ([]MessageDTO, error) {
	if _, err := s.authorize(ctx, actorID, admin, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	if err := s.repo.MarkMessagesRead(ctx, conversationID, actorID); err != nil && s.logg != nil {
		s.logg.Error(s.conversationCtx(ctx, conversationID), "mark messages read", err)
	}
	return FromMessageModels(rows), nil
}

func (s *service) SendMessage(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID, input SendMessageInput) (*MessageDTO, error) {
	conversation, err := s.authorize(ctx, actorID, admin, conversationID)
	if err != nil {
		return nil, err
	}
	logCtx := s.conversationCtx(ctx, conversationID)

	content := strings.TrimSpace(input.Content)
	if content == "" && input.Attachment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message needs text or an attachment")
	}

	var fileURL, fileName *string
	var uploadedObject string
	if input.Attachment != nil {
		if input.Attachment.Size > s.maxAttachment {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("attachment exceeds the %d MiB limit", s.maxAttachment>>20))
		}
		url, object, uploadErr := s.uploadAttachment(ctx, conversation.BuyerID, input.Attachment)
		if uploadErr != nil {
			// Text-only sends survive a failed upload; file-only sends abort.
			if content == "" {
				return nil, uploadErr
			}
			if s.logg != nil {
				s.logg.Error(logCtx, "attachment upload failed, sending text only", uploadErr)
			}
		} else {
			name := input.Attachment.Name
			fileURL = &url
			fileName = &name
			uploadedObject = object
		}
	}

	if content == "" {
		content = AttachmentPlaceholder
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       actorID,
		Content:        content,
		FileURL:        fileURL,
		FileName:       fileName,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.repo.CreateMessage(ctx, message); err != nil {
		// The row never landed, so the uploaded object is an orphan.
		if uploadedObject != "" && s.uploader != nil {
			if delErr := s.uploader.DeleteObject(ctx, s.bucket, uploadedObject); delErr != nil && s.logg != nil {
				s.logg.Error(logCtx, "remove orphaned attachment", delErr)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}
	if err := s.repo.TouchConversation(ctx, conversationID, s.now().UTC()); err != nil && s.logg != nil {
		s.logg.Error(logCtx, "touch conversation", err)
	}

	dto := FromMessageModel(message)
	s.publish(logCtx, conversationID, dto)
	return dto, nil
}

// uploadAttachment stores the file under a buyer-scoped, timestamp-keyed path
// so concurrent uploads never collide. Private buckets get a signed read URL;
// deployments without signing credentials fall back to the public object URL.
func (s *service) uploadAttachment(ctx context.Context, buyerID uuid.UUID, attachment *Attachment) (string, string, error) {
	if s.uploader == nil {
		return "", "", pkgerrors.New(pkgerrors.CodeUpload, "attachment storage not configured")
	}

	object := fmt.Sprintf("chat/%s/%d-%s", buyerID, s.now().UnixNano(), sanitizeFileName(attachment.Name))
	url, err := s.uploader.UploadObject(ctx, s.bucket, object, attachment.ContentType, attachment.Data)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeUpload, err, "upload attachment")
	}
	if signed, signErr := s.uploader.SignedReadURL(s.bucket, object, signedAttachmentTTL); signErr == nil {
		url = signed
	}
	return url, object, nil
}

func (s *service) conversationCtx(ctx context.Context, conversationID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithConversationID(ctx, conversationID.String())
}

func (s *service) publish(ctx context.Context, conversationID uuid.UUID, dto *MessageDTO) {
	payload, err := json.Marshal(dto)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "encode chat message", err)
		}
		return
	}
	channel := s.publisher.ChatChannel(conversationID.String())
	if err := s.publisher.Publish(ctx, channel, payload); err != nil && s.logg != nil {
		s.logg.Error(ctx, "publish chat message", err)
	}
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" || name == "." {
		return "lampiran"
	}
	return name
}

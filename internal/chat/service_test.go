package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

type stubChatRepo struct {
	conversations []*models.Conversation
	messages      []*models.Message

	createMessageErr error
}

func (s *stubChatRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubChatRepo) CreateConversation(_ context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	s.conversations = append(s.conversations, conversation)
	return conversation, nil
}

func (s *stubChatRepo) CreateConversationIfAbsent(_ context.Context, conversation *models.Conversation) error {
	if conversation.OrderID != nil {
		for _, existing := range s.conversations {
			if existing.OrderID != nil &&
				existing.BuyerID == conversation.BuyerID &&
				*existing.OrderID == *conversation.OrderID {
				return nil
			}
		}
	}
	s.conversations = append(s.conversations, conversation)
	return nil
}

func (s *stubChatRepo) FindConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	for _, conversation := range s.conversations {
		if conversation.ID == id {
			return conversation, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubChatRepo) FindConversationByBuyerAndOrder(_ context.Context, buyerID, orderID uuid.UUID) (*models.Conversation, error) {
	for _, conversation := range s.conversations {
		if conversation.BuyerID == buyerID &&
			conversation.OrderID != nil && *conversation.OrderID == orderID {
			return conversation, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubChatRepo) ListConversationsByBuyer(_ context.Context, buyerID uuid.UUID) ([]models.Conversation, error) {
	var rows []models.Conversation
	for _, conversation := range s.conversations {
		if conversation.BuyerID == buyerID {
			rows = append(rows, *conversation)
		}
	}
	return rows, nil
}

func (s *stubChatRepo) TouchConversation(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, conversation := range s.conversations {
		if conversation.ID == id {
			conversation.UpdatedAt = at
		}
	}
	return nil
}

func (s *stubChatRepo) CreateMessage(_ context.Context, message *models.Message) (*models.Message, error) {
	if s.createMessageErr != nil {
		return nil, s.createMessageErr
	}
	s.messages = append(s.messages, message)
	return message, nil
}

func (s *stubChatRepo) ListMessages(_ context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	for _, message := range s.messages {
		if message.ConversationID == conversationID {
			rows = append(rows, *message)
		}
	}
	return rows, nil
}

func (s *stubChatRepo) MarkMessagesRead(_ context.Context, conversationID, readerID uuid.UUID) error {
	for _, message := range s.messages {
		if message.ConversationID == conversationID && message.SenderID != readerID {
			message.IsRead = true
		}
	}
	return nil
}

type stubOrderLoader struct {
	order *models.Order
}

func (s *stubOrderLoader) FindByCodeForBuyer(_ context.Context, orderCode string, buyerID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.OrderCode != orderCode || s.order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type uploadCall struct {
	bucket      string
	object      string
	contentType string
	body        string
}

type stubUploader struct {
	calls   []uploadCall
	err     error
	signErr error
	deleted []string
}

func (s *stubUploader) UploadObject(_ context.Context, bucket, object, contentType string, data io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.calls = append(s.calls, uploadCall{bucket: bucket, object: object, contentType: contentType, body: string(body)})
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object), nil
}

func (s *stubUploader) SignedReadURL(bucket, object string, _ time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s?Signature=abc", bucket, object), nil
}

func (s *stubUploader) DeleteObject(_ context.Context, _, object string) error {
	s.deleted = append(s.deleted, object)
	return nil
}

type publishCall struct {
	channel string
	payload any
}

type stubPublisher struct {
	calls []publishCall
}

func (s *stubPublisher) Publish(_ context.Context, channel string, payload any) error {
	s.calls = append(s.calls, publishCall{channel: channel, payload: payload})
	return nil
}

func (s *stubPublisher) ChatChannel(conversationID string) string {
	return "kv:chat:conversation:" + conversationID
}

func chatFixtureOrder(buyerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		OrderCode: "KV-AAA111",
		BrandName: "Kopi Senja",
		Items: types.OrderItems{
			{ID: "logo-std", Name: "Logo Standar", Category: enums.ServiceCategoryStandar, Price: 300000},
			{ID: "feed-umkm", Name: "Feed Instagram", Category: enums.ServiceCategoryUMKM, Price: 200000},
		},
	}
}

type chatFixture struct {
	service   Service
	repo      *stubChatRepo
	orders    *stubOrderLoader
	uploader  *stubUploader
	publisher *stubPublisher
	buyerID   uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	buyerID := uuid.New()
	repo := &stubChatRepo{}
	orders := &stubOrderLoader{order: chatFixtureOrder(buyerID)}
	uploader := &stubUploader{}
	publisher := &stubPublisher{}

	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Orders:    orders,
		Uploader:  uploader,
		Bucket:    "kreasivisual-chat",
		Publisher: publisher,
		Now:       func() time.Time { return time.Date(2025, 9, 15, 3, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return &chatFixture{
		service:   svc,
		repo:      repo,
		orders:    orders,
		uploader:  uploader,
		publisher: publisher,
		buyerID:   buyerID,
	}
}

func (f *chatFixture) ownedConversation(t *testing.T) *models.Conversation {
	t.Helper()
	conversation := &models.Conversation{
		ID:      uuid.New(),
		BuyerID: f.buyerID,
		Subject: "Konsultasi Desain",
	}
	f.repo.conversations = append(f.repo.conversations, conversation)
	return conversation
}

func TestEnsureOrderConversationSeedsGreetingOnce(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.service.EnsureOrderConversation(ctx, f.buyerID, "KV-AAA111")
	require.NoError(t, err)
	second, err := f.service.EnsureOrderConversation(ctx, f.buyerID, "KV-AAA111")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Pesanan KV-AAA111 - Kopi Senja", first.Subject)

	require.Len(t, f.repo.messages, 1)
	greeting := f.repo.messages[0]
	assert.Equal(t, f.buyerID, greeting.SenderID)
	assert.Equal(t,
		"Halo Admin, saya ingin berdiskusi tentang pesanan KV-AAA111 (Kopi Senja).\nLayanan: Logo Standar, Feed Instagram",
		greeting.Content)
}

func TestEnsureOrderConversationRejectsForeignOrder(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.EnsureOrderConversation(context.Background(), uuid.New(), "KV-AAA111")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestStartConversationDefaultsSubject(t *testing.T) {
	f := newChatFixture(t)

	dto, err := f.service.StartConversation(context.Background(), f.buyerID, "   ")
	require.NoError(t, err)
	assert.Equal(t, "Konsultasi Desain", dto.Subject)
}

func TestSendMessageRequiresTextOrAttachment(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	_, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{Content: "  "})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSendMessageRejectsOversizedAttachmentBeforeUpload(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	_, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "brief.pdf",
			ContentType: "application/pdf",
			Size:        11 << 20,
			Data:        strings.NewReader("tidak terpakai"),
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, f.uploader.calls)
}

func TestSendMessageFileOnlyStoresPlaceholder(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	dto, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "moodboard v2.png",
			ContentType: "image/png",
			Size:        512,
			Data:        bytes.NewReader([]byte("png-bytes")),
		},
	})
	require.NoError(t, err)

	require.Len(t, f.repo.messages, 1)
	assert.Equal(t, AttachmentPlaceholder, f.repo.messages[0].Content)

	assert.Equal(t, "", dto.Content)
	require.NotNil(t, dto.FileURL)
	require.NotNil(t, dto.FileName)
	assert.Equal(t, "moodboard v2.png", *dto.FileName)
	assert.True(t, dto.FileIsImage)

	require.Len(t, f.uploader.calls, 1)
	call := f.uploader.calls[0]
	assert.Equal(t, "kreasivisual-chat", call.bucket)
	assert.True(t, strings.HasPrefix(call.object, "chat/"+f.buyerID.String()+"/"))
	assert.True(t, strings.HasSuffix(call.object, "-moodboard-v2.png"))
	assert.Equal(t, "png-bytes", call.body)
}

func TestSendMessageTextSurvivesFailedUpload(t *testing.T) {
	f := newChatFixture(t)
	f.uploader.err = errors.New("bucket unavailable")
	conversation := f.ownedConversation(t)

	dto, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Content: "terlampir referensi warna",
		Attachment: &Attachment{
			Name:        "palet.jpg",
			ContentType: "image/jpeg",
			Size:        256,
			Data:        bytes.NewReader([]byte("jpg")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "terlampir referensi warna", dto.Content)
	assert.Nil(t, dto.FileURL)
	assert.Nil(t, dto.FileName)
	require.Len(t, f.repo.messages, 1)
}

func TestSendMessageFileOnlyAbortsOnFailedUpload(t *testing.T) {
	f := newChatFixture(t)
	f.uploader.err = errors.New("bucket unavailable")
	conversation := f.ownedConversation(t)

	_, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "palet.jpg",
			ContentType: "image/jpeg",
			Size:        256,
			Data:        bytes.NewReader([]byte("jpg")),
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUpload, typed.Code())
	assert.Empty(t, f.repo.messages)
}

func TestSendMessageSignsAttachmentURL(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	dto, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "brief.pdf",
			ContentType: "application/pdf",
			Size:        1024,
			Data:        bytes.NewReader([]byte("pdf")),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, dto.FileURL)
	assert.Contains(t, *dto.FileURL, "Signature=")
	require.Len(t, f.uploader.calls, 1)
	assert.Contains(t, *dto.FileURL, f.uploader.calls[0].object)
}

func TestSendMessageFallsBackToPublicURLWithoutSigner(t *testing.T) {
	f := newChatFixture(t)
	f.uploader.signErr = errors.New("gcs signing requires service account credentials")
	conversation := f.ownedConversation(t)

	dto, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "brief.pdf",
			ContentType: "application/pdf",
			Size:        1024,
			Data:        bytes.NewReader([]byte("pdf")),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, dto.FileURL)
	assert.NotContains(t, *dto.FileURL, "Signature=")
	require.Len(t, f.uploader.calls, 1)
	assert.Equal(t,
		fmt.Sprintf("https://storage.googleapis.com/kreasivisual-chat/%s", f.uploader.calls[0].object),
		*dto.FileURL)
}

func TestSendMessageRemovesOrphanUploadOnFailedInsert(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)
	f.repo.createMessageErr = errors.New("connection reset")

	_, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Attachment: &Attachment{
			Name:        "moodboard.png",
			ContentType: "image/png",
			Size:        512,
			Data:        bytes.NewReader([]byte("png")),
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	require.Len(t, f.uploader.calls, 1)
	require.Len(t, f.uploader.deleted, 1)
	assert.Equal(t, f.uploader.calls[0].object, f.uploader.deleted[0])
}

func TestSendMessagePublishesOnConversationChannel(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	dto, err := f.service.SendMessage(context.Background(), f.buyerID, false, conversation.ID, SendMessageInput{
		Content: "halo admin",
	})
	require.NoError(t, err)

	require.Len(t, f.publisher.calls, 1)
	call := f.publisher.calls[0]
	assert.Equal(t, "kv:chat:conversation:"+conversation.ID.String(), call.channel)
	payload, ok := call.payload.([]byte)
	require.True(t, ok)
	assert.Contains(t, string(payload), dto.ID.String())
	assert.Contains(t, string(payload), "halo admin")
}

func TestSendMessageLogsCarryConversationID(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	buyerID := uuid.New()
	repo := &stubChatRepo{}
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Orders:    &stubOrderLoader{},
		Uploader:  &stubUploader{err: errors.New("bucket unavailable")},
		Bucket:    "kreasivisual-chat",
		Publisher: &stubPublisher{},
		Logger:    logg,
	})
	require.NoError(t, err)

	conversation := &models.Conversation{ID: uuid.New(), BuyerID: buyerID, Subject: "Konsultasi Desain"}
	repo.conversations = append(repo.conversations, conversation)

	_, err = svc.SendMessage(context.Background(), buyerID, false, conversation.ID, SendMessageInput{
		Content: "teks tetap terkirim",
		Attachment: &Attachment{
			Name:        "palet.jpg",
			ContentType: "image/jpeg",
			Size:        16,
			Data:        bytes.NewReader([]byte("jpg")),
		},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"conversation_id":"`+conversation.ID.String()+`"`)
}

func TestSendMessageForbiddenForOtherBuyer(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	_, err := f.service.SendMessage(context.Background(), uuid.New(), false, conversation.ID, SendMessageInput{
		Content: "bukan milik saya",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestAdminBypassesOwnershipCheck(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	adminID := uuid.New()
	dto, err := f.service.SendMessage(context.Background(), adminID, true, conversation.ID, SendMessageInput{
		Content: "revisi sudah siap",
	})
	require.NoError(t, err)
	assert.Equal(t, adminID, dto.SenderID)
}

func TestListMessagesMarksIncomingRead(t *testing.T) {
	f := newChatFixture(t)
	conversation := f.ownedConversation(t)

	adminID := uuid.New()
	f.repo.messages = append(f.repo.messages,
		&models.Message{ID: uuid.New(), ConversationID: conversation.ID, SenderID: adminID, Content: "dari admin"},
		&models.Message{ID: uuid.New(), ConversationID: conversation.ID, SenderID: f.buyerID, Content: "dari saya"},
	)

	_, err := f.service.ListMessages(context.Background(), f.buyerID, false, conversation.ID)
	require.NoError(t, err)

	for _, message := range f.repo.messages {
		if message.SenderID == adminID {
			assert.True(t, message.IsRead)
		} else {
			assert.False(t, message.IsRead)
		}
	}
}

func TestIsImageFileNameAllowList(t *testing.T) {
	image := "desain.PNG"
	document := "brief.pdf"
	assert.True(t, IsImageFileName(&image))
	assert.False(t, IsImageFileName(&document))
	assert.False(t, IsImageFileName(nil))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "logo-final-v2.png", sanitizeFileName("logo final v2.png"))
	assert.Equal(t, "rahasia.txt", sanitizeFileName("..\\..\\rahasia.txt"))
	assert.Equal(t, "lampiran", sanitizeFileName(""))
}

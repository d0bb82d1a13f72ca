package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
)

// Service exposes the notification operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]NotificationDTO, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Notify(ctx context.Context, userID uuid.UUID, title, message string, link *string) (*NotificationDTO, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ServiceParams packages the notification service dependencies.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

// NewService builds the notification service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, now: now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]NotificationDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return FromModels(rows), nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds,
// while a notification that does not belong to the user reads as missing.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	affected, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected > 0 {
		return nil
	}

	exists, err := s.repo.Exists(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	affected, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return affected, nil
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, title, message string, link *string) (*NotificationDTO, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if userID == uuid.Nil || title == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification needs a user, title and message")
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return FromModel(notification), nil
}

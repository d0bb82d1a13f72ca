package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/internal/cart"
	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSource interface {
	Snapshot(ctx context.Context, buyerID string) (*cart.State, error)
	Clear(ctx context.Context, buyerID string) error
}

// Service exposes order lifecycle operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	GetByCode(ctx context.Context, buyerID uuid.UUID, orderCode string) (*OrderDTO, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDTO, error)
	Transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*OrderDTO, error)
	TransitionByCode(ctx context.Context, orderCode string, to enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams packages the order service dependencies.
type ServiceParams struct {
	Repo     Repository
	TxRunner txRunner
	Cart     cartSource
	Events   EventPublisher
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo   Repository
	tx     txRunner
	cart   cartSource
	events EventPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the order lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart source required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.TxRunner,
		cart:   params.Cart,
		events: params.Events,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// GenerateOrderCode derives the buyer-visible order code from a timestamp.
func GenerateOrderCode(at time.Time) string {
	return "KV-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}

// DownPaymentAmount is round-half-up(final / 2).
func DownPaymentAmount(finalPrice int64) int64 {
	return decimal.NewFromInt(finalPrice).
		Div(decimal.NewFromInt(2)).
		Round(0).
		IntPart()
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if strings.TrimSpace(req.BrandName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand_name is required")
	}
	if strings.TrimSpace(req.Brief) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brief is required")
	}
	if strings.TrimSpace(req.Deadline) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline is required")
	}
	option, err := enums.ParsePaymentOption(req.PaymentOption)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_option must be full or dp50")
	}

	snapshot, err := s.cart.Snapshot(ctx, buyerID.String())
	if err != nil {
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if option == enums.PaymentOptionDP50 && !snapshot.Items.HasDownPaymentTier() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"dp50 requires at least one standar or profesional item")
	}

	finalPrice := snapshot.FinalPrice()
	var dpAmount *int64
	if option == enums.PaymentOptionDP50 {
		amount := DownPaymentAmount(finalPrice)
		dpAmount = &amount
	}

	order := &models.Order{
		ID:            uuid.New(),
		OrderCode:     GenerateOrderCode(s.now()),
		BuyerID:       buyerID,
		Items:         snapshot.Items,
		BrandName:     strings.TrimSpace(req.BrandName),
		Brief:         strings.TrimSpace(req.Brief),
		Style:         strings.TrimSpace(req.Style),
		Deadline:      strings.TrimSpace(req.Deadline),
		Reference:     strings.TrimSpace(req.Reference),
		TotalPrice:    finalPrice,
		DPAmount:      dpAmount,
		PaymentOption: option,
		Status:        option.InitialOrderStatus(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The cart is gone once the order exists; a failed clear only means the
	// buyer sees a stale cart until the TTL runs out.
	if err := s.cart.Clear(ctx, buyerID.String()); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clear cart after checkout", err)
	}

	s.emit(ctx, OrderEvent{
		EventType:  EventOrderCreated,
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		BuyerID:    order.BuyerID,
		Status:     order.Status,
		OccurredAt: s.now().UTC(),
	})

	return FromModel(order), nil
}

func (s *service) GetByCode(ctx context.Context, buyerID uuid.UUID, orderCode string) (*OrderDTO, error) {
	order, err := s.repo.FindByCodeForBuyer(ctx, strings.TrimSpace(orderCode), buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return FromModels(rows), nil
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.applyTransition(ctx, order, to)
}

func (s *service) TransitionByCode(ctx context.Context, orderCode string, to enums.OrderStatus) (*OrderDTO, error) {
	order, err := s.repo.FindByCode(ctx, strings.TrimSpace(orderCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.applyTransition(ctx, order, to)
}

// applyTransition moves the order forward through the status machine.
// Re-applying the current status is an idempotent no-op; the payment
// notification handler depends on that when the gateway replays callbacks.
func (s *service) applyTransition(ctx context.Context, order *models.Order, to enums.OrderStatus) (*OrderDTO, error) {
	if order.Status == to {
		return FromModel(order), nil
	}
	if err := Transition(order.Status, to, order.PaymentOption); err != nil {
		return nil, err
	}

	previous := order.Status
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, to.String()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = to

	s.emit(ctx, OrderEvent{
		EventType:      EventOrderStatusChanged,
		OrderID:        order.ID,
		OrderCode:      order.OrderCode,
		BuyerID:        order.BuyerID,
		Status:         to,
		PreviousStatus: previous,
		OccurredAt:     s.now().UTC(),
	})

	return FromModel(order), nil
}

func (s *service) emit(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil && s.logg != nil {
		s.logg.Error(ctx, "publish order event", err)
	}
}

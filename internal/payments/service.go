package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	mt "github.com/midtrans/midtrans-go"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/midtrans"
)

type orderStore interface {
	FindByCodeForBuyer(ctx context.Context, orderCode string, buyerID uuid.UUID) (*models.Order, error)
	UpdateGatewaySession(ctx context.Context, id uuid.UUID, gatewayOrderID, snapToken string) error
}

type orderTransitioner interface {
	TransitionByCode(ctx context.Context, orderCode string, to enums.OrderStatus) (*orders.OrderDTO, error)
}

type snapGateway interface {
	CreateSnapTransaction(ctx context.Context, params midtrans.SnapCreateParams) (*midtrans.SnapSession, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
	ClientKey() string
	Environment() mt.EnvironmentType
}

type buyerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service orchestrates payment sessions and gateway notifications.
type Service interface {
	CreateSession(ctx context.Context, buyerID uuid.UUID, orderCode string) (*SessionDTO, error)
	HandleNotification(ctx context.Context, payload NotificationPayload) error
}

// ServiceParams packages the payment service dependencies.
type ServiceParams struct {
	Orders  orderStore
	Machine orderTransitioner
	Gateway snapGateway
	Buyers  buyerLoader
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	orders  orderStore
	machine orderTransitioner
	gateway snapGateway
	buyers  buyerLoader
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the payment orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	if params.Machine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order transitioner required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Buyers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "buyer loader required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:  params.Orders,
		machine: params.Machine,
		gateway: params.Gateway,
		buyers:  params.Buyers,
		logg:    params.Logger,
		now:     now,
	}, nil
}

type chargeKind int

const (
	chargeFull chargeKind = iota
	chargeDownPayment
	chargeBalance
)

func (s *service) CreateSession(ctx context.Context, buyerID uuid.UUID, orderCode string) (*SessionDTO, error) {
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
	if !order.Status.IsAwaitingPayment() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	kind, amount := amountDue(order)
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing left to pay on this order")
	}

	buyer, err := s.buyers.FindByID(ctx, order.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	gatewayOrderID := fmt.Sprintf("%s-%d", order.OrderCode, s.now().UnixMilli())
	session, err := s.gateway.CreateSnapTransaction(ctx, midtrans.SnapCreateParams{
		GatewayOrderID: gatewayOrderID,
		GrossAmount:    amount,
		Items:          buildLineItems(order, kind, amount),
		CustomerName:   order.BrandName,
		CustomerEmail:  buyer.Email,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateGatewaySession(ctx, order.ID, gatewayOrderID, session.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist gateway session")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderCode(ctx, order.OrderCode), "payment session created")
	}

	return &SessionDTO{
		SnapToken:   session.Token,
		RedirectURL: session.RedirectURL,
		ClientKey:   s.gateway.ClientKey(),
		Environment: environmentLabel(s.gateway.Environment()),
	}, nil
}

// amountDue picks the charge for the order's current wait state: the down
// payment while the DP is outstanding, the remaining balance once production
// wrapped up, the full total otherwise.
func amountDue(order *models.Order) (chargeKind, int64) {
	switch {
	case order.Status == enums.OrderStatusAwaitingDownPayment &&
		order.PaymentOption == enums.PaymentOptionDP50:
		if order.DPAmount != nil {
			return chargeDownPayment, *order.DPAmount
		}
		return chargeDownPayment, orders.DownPaymentAmount(order.TotalPrice)
	case order.Status == enums.OrderStatusAwaitingFinalPayment:
		if order.DPAmount != nil {
			return chargeBalance, order.TotalPrice - *order.DPAmount
		}
		return chargeBalance, order.TotalPrice
	default:
		return chargeFull, order.TotalPrice
	}
}

// buildLineItems snapshots the order items for the gateway. Snap rejects any
// request where the item prices do not sum to the gross amount, so partial
// charges (and discounted totals) collapse to one synthetic line.
func buildLineItems(order *models.Order, kind chargeKind, amount int64) []midtrans.SnapItem {
	items := make([]midtrans.SnapItem, 0, len(order.Items))
	var sum int64
	for _, item := range order.Items {
		items = append(items, midtrans.SnapItem{
			ID:    item.ID,
			Price: item.Price,
			Name:  item.Name,
		})
		sum += item.Price
	}

	if len(items) > 0 && sum == amount {
		return items
	}

	switch kind {
	case chargeDownPayment:
		return []midtrans.SnapItem{{
			ID:    "dp-payment",
			Price: amount,
			Name:  "DP 50% - " + order.BrandName,
		}}
	case chargeBalance:
		return []midtrans.SnapItem{{
			ID:    "balance-payment",
			Price: amount,
			Name:  "Pelunasan - " + order.BrandName,
		}}
	default:
		return []midtrans.SnapItem{{
			ID:    "order",
			Price: amount,
			Name:  "Layanan Desain",
		}}
	}
}

func environmentLabel(env mt.EnvironmentType) string {
	if env == mt.Production {
		return "production"
	}
	return "sandbox"
}

// HandleNotification processes a Midtrans payment notification. Successful
// charges move the order to the verification state; anything else leaves the
// status untouched so the buyer can retry from the storefront.
func (s *service) HandleNotification(ctx context.Context, payload NotificationPayload) error {
	if payload.OrderID == "" || payload.StatusCode == "" || payload.GrossAmount == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification payload incomplete")
	}
	if !s.gateway.VerifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid notification signature")
	}

	orderCode := OrderCodeFromGatewayID(payload.OrderID)
	if orderCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "malformed gateway order id")
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderCode(ctx, orderCode)
	}

	switch payload.TransactionStatus {
	case "settlement", "capture":
		if payload.TransactionStatus == "capture" && payload.FraudStatus == "challenge" {
			if s.logg != nil {
				s.logg.Warn(logCtx, "payment capture held for fraud review")
			}
			return nil
		}
		_, err := s.machine.TransitionByCode(ctx, orderCode, enums.OrderStatusVerifying)
		if err != nil {
			// Replayed notifications land on orders that already moved on.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				if s.logg != nil {
					s.logg.Info(logCtx, "ignoring replayed payment notification")
				}
				return nil
			}
			return err
		}
		if s.logg != nil {
			s.logg.Info(logCtx, "payment confirmed, order moved to verification")
		}
		return nil
	case "pending":
		if s.logg != nil {
			s.logg.Info(logCtx, "payment pending")
		}
		return nil
	case "deny", "cancel", "expire", "failure":
		if s.logg != nil {
			s.logg.Warn(logCtx, "payment failed: "+payload.TransactionStatus)
		}
		return nil
	default:
		if s.logg != nil {
			s.logg.Warn(logCtx, "unknown transaction status: "+payload.TransactionStatus)
		}
		return nil
	}
}

// OrderCodeFromGatewayID strips the timestamp suffix appended when the
// session was created, e.g. "KV-ABC123-1757900000000" → "KV-ABC123".
func OrderCodeFromGatewayID(gatewayOrderID string) string {
	idx := strings.LastIndex(gatewayOrderID, "-")
	if idx <= 0 {
		return ""
	}
	return gatewayOrderID[:idx]
}

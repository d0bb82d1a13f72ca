package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	mt "github.com/midtrans/midtrans-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/midtrans"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

type stubOrderStore struct {
	order     *models.Order
	sessionID uuid.UUID
	gatewayID string
	snapToken string
}

func (s *stubOrderStore) FindByCodeForBuyer(_ context.Context, code string, buyerID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.OrderCode != code || s.order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrderStore) UpdateGatewaySession(_ context.Context, id uuid.UUID, gatewayOrderID, snapToken string) error {
	s.sessionID = id
	s.gatewayID = gatewayOrderID
	s.snapToken = snapToken
	return nil
}

type stubTransitioner struct {
	calls []enums.OrderStatus
	codes []string
	err   error
}

func (s *stubTransitioner) TransitionByCode(_ context.Context, code string, to enums.OrderStatus) (*orders.OrderDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, to)
	s.codes = append(s.codes, code)
	return &orders.OrderDTO{OrderCode: code, Status: to}, nil
}

type stubGateway struct {
	params   *midtrans.SnapCreateParams
	session  *midtrans.SnapSession
	err      error
	validSig bool
}

func (s *stubGateway) CreateSnapTransaction(_ context.Context, params midtrans.SnapCreateParams) (*midtrans.SnapSession, error) {
	s.params = &params
	if s.err != nil {
		return nil, s.err
	}
	if s.session != nil {
		return s.session, nil
	}
	return &midtrans.SnapSession{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token"}, nil
}

func (s *stubGateway) VerifySignature(_, _, _, _ string) bool {
	return s.validSig
}

func (s *stubGateway) ClientKey() string { return "SB-Mid-client-abc" }

func (s *stubGateway) Environment() mt.EnvironmentType { return mt.Sandbox }

type stubBuyers struct {
	user *models.User
}

func (s *stubBuyers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func paidOrder(status enums.OrderStatus, option enums.PaymentOption) *models.Order {
	buyerID := uuid.New()
	order := &models.Order{
		ID:        uuid.New(),
		OrderCode: "KV-ABC123",
		BuyerID:   buyerID,
		Items: types.OrderItems{
			{ID: "logo-standar", Name: "Paket Logo Standar", Category: enums.ServiceCategoryStandar, Price: 300000},
			{ID: "feed-ig", Name: "Paket Feed Instagram", Category: enums.ServiceCategoryUMKM, Price: 200000},
		},
		BrandName:     "Kopi Senja",
		Brief:         "Logo kedai kopi",
		Deadline:      "2025-10-01",
		TotalPrice:    500000,
		PaymentOption: option,
		Status:        status,
	}
	if option == enums.PaymentOptionDP50 {
		dp := int64(250000)
		order.DPAmount = &dp
	}
	return order
}

func newPaymentsServiceForTest(t *testing.T, order *models.Order) (Service, *stubOrderStore, *stubTransitioner, *stubGateway) {
	t.Helper()

	store := &stubOrderStore{order: order}
	machine := &stubTransitioner{}
	gateway := &stubGateway{validSig: true}
	buyers := &stubBuyers{}
	if order != nil {
		buyers.user = &models.User{ID: order.BuyerID, Email: "owner@kopisenja.id"}
	}

	svc, err := NewService(ServiceParams{
		Orders:  store,
		Machine: machine,
		Gateway: gateway,
		Buyers:  buyers,
		Now:     func() time.Time { return time.UnixMilli(1757900000000) },
	})
	require.NoError(t, err)
	return svc, store, machine, gateway
}

func TestCreateSessionFullPayment(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	svc, store, _, gateway := newPaymentsServiceForTest(t, order)

	dto, err := svc.CreateSession(context.Background(), order.BuyerID, "KV-ABC123")
	require.NoError(t, err)

	assert.Equal(t, "snap-token", dto.SnapToken)
	assert.Equal(t, "SB-Mid-client-abc", dto.ClientKey)
	assert.Equal(t, "sandbox", dto.Environment)

	require.NotNil(t, gateway.params)
	assert.Equal(t, "KV-ABC123-1757900000000", gateway.params.GatewayOrderID)
	assert.Equal(t, int64(500000), gateway.params.GrossAmount)
	assert.Equal(t, "Kopi Senja", gateway.params.CustomerName)
	assert.Equal(t, "owner@kopisenja.id", gateway.params.CustomerEmail)
	require.Len(t, gateway.params.Items, 2)
	assert.Equal(t, "Paket Logo Standar", gateway.params.Items[0].Name)

	assert.Equal(t, order.ID, store.sessionID)
	assert.Equal(t, "KV-ABC123-1757900000000", store.gatewayID)
	assert.Equal(t, "snap-token", store.snapToken)
}

func TestCreateSessionDiscountedTotalCollapsesItems(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	order.TotalPrice = 450000 // coupon applied at checkout, items still sum to 500000

	svc, _, _, gateway := newPaymentsServiceForTest(t, order)

	_, err := svc.CreateSession(context.Background(), order.BuyerID, "KV-ABC123")
	require.NoError(t, err)

	require.Len(t, gateway.params.Items, 1)
	assert.Equal(t, "order", gateway.params.Items[0].ID)
	assert.Equal(t, int64(450000), gateway.params.Items[0].Price)
	assert.Equal(t, "Layanan Desain", gateway.params.Items[0].Name)
}

func TestCreateSessionDownPaymentCollapsesToSyntheticItem(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingDownPayment, enums.PaymentOptionDP50)
	svc, _, _, gateway := newPaymentsServiceForTest(t, order)

	_, err := svc.CreateSession(context.Background(), order.BuyerID, "KV-ABC123")
	require.NoError(t, err)

	assert.Equal(t, int64(250000), gateway.params.GrossAmount)
	require.Len(t, gateway.params.Items, 1)
	assert.Equal(t, "dp-payment", gateway.params.Items[0].ID)
	assert.Equal(t, int64(250000), gateway.params.Items[0].Price)
	assert.Equal(t, "DP 50% - Kopi Senja", gateway.params.Items[0].Name)
}

func TestCreateSessionBalanceCharge(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingFinalPayment, enums.PaymentOptionDP50)
	svc, _, _, gateway := newPaymentsServiceForTest(t, order)

	_, err := svc.CreateSession(context.Background(), order.BuyerID, "KV-ABC123")
	require.NoError(t, err)

	assert.Equal(t, int64(250000), gateway.params.GrossAmount)
	require.Len(t, gateway.params.Items, 1)
	assert.Equal(t, "balance-payment", gateway.params.Items[0].ID)
	assert.Equal(t, "Pelunasan - Kopi Senja", gateway.params.Items[0].Name)
}

func TestCreateSessionRejectsPostPaymentStates(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusVerifying,
		enums.OrderStatusInProduction,
		enums.OrderStatusDone,
	} {
		order := paidOrder(status, enums.PaymentOptionFull)
		svc, _, _, _ := newPaymentsServiceForTest(t, order)

		_, err := svc.CreateSession(context.Background(), order.BuyerID, "KV-ABC123")
		require.Error(t, err, "%s", status)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	}
}

func TestCreateSessionUnknownOrder(t *testing.T) {
	svc, _, _, _ := newPaymentsServiceForTest(t, paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull))

	_, err := svc.CreateSession(context.Background(), uuid.New(), "KV-LAIN")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func validNotification(status string) NotificationPayload {
	return NotificationPayload{
		OrderID:           "KV-ABC123-1757900000000",
		StatusCode:        "200",
		GrossAmount:       "500000.00",
		SignatureKey:      "abc",
		TransactionStatus: status,
	}
}

func TestHandleNotificationSettlementMovesOrderToVerification(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	svc, _, machine, _ := newPaymentsServiceForTest(t, order)

	err := svc.HandleNotification(context.Background(), validNotification("settlement"))
	require.NoError(t, err)

	require.Len(t, machine.calls, 1)
	assert.Equal(t, enums.OrderStatusVerifying, machine.calls[0])
	assert.Equal(t, "KV-ABC123", machine.codes[0])
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	svc, _, machine, gateway := newPaymentsServiceForTest(t, order)
	gateway.validSig = false

	err := svc.HandleNotification(context.Background(), validNotification("settlement"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Empty(t, machine.calls)
}

func TestHandleNotificationIgnoresReplayOnSettledOrder(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	svc, _, machine, _ := newPaymentsServiceForTest(t, order)
	machine.err = pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state")

	err := svc.HandleNotification(context.Background(), validNotification("settlement"))
	require.NoError(t, err)
}

func TestHandleNotificationLeavesStatusOnPendingAndFailure(t *testing.T) {
	for _, status := range []string{"pending", "deny", "cancel", "expire"} {
		order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
		svc, _, machine, _ := newPaymentsServiceForTest(t, order)

		err := svc.HandleNotification(context.Background(), validNotification(status))
		require.NoError(t, err, "%s", status)
		assert.Empty(t, machine.calls, "%s", status)
	}
}

func TestHandleNotificationCaptureHeldForFraudReview(t *testing.T) {
	order := paidOrder(enums.OrderStatusAwaitingPayment, enums.PaymentOptionFull)
	svc, _, machine, _ := newPaymentsServiceForTest(t, order)

	payload := validNotification("capture")
	payload.FraudStatus = "challenge"
	require.NoError(t, svc.HandleNotification(context.Background(), payload))
	assert.Empty(t, machine.calls)

	payload.FraudStatus = "accept"
	require.NoError(t, svc.HandleNotification(context.Background(), payload))
	assert.Len(t, machine.calls, 1)
}

func TestOrderCodeFromGatewayID(t *testing.T) {
	assert.Equal(t, "KV-ABC123", OrderCodeFromGatewayID("KV-ABC123-1757900000000"))
	assert.Equal(t, "KV", OrderCodeFromGatewayID("KV-ABC123"))
	assert.Equal(t, "", OrderCodeFromGatewayID("tanpadash"))
}

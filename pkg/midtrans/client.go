package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	mt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/kreasivisual/kreasivisual-backend/pkg/config"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

// sandboxKeyPrefix marks a Midtrans sandbox server key.
const sandboxKeyPrefix = "SB-"

var (
	errServerKeyRequired = errors.New("midtrans server key is required")
	errClientKeyRequired = errors.New("midtrans client key is required")
	errLoggerRequired    = errors.New("midtrans logger is required")
)

// Client exposes Midtrans Snap primitives with centralized auth, logging, and error mapping.
type Client struct {
	snap      snapCaller
	serverKey string
	clientKey string
	env       mt.EnvironmentType
	logger    *logger.Logger
}

// snapCaller is the slice of the Snap SDK client the wrapper needs.
type snapCaller interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *mt.Error)
}

// SnapItem is one billable line on a Snap session.
type SnapItem struct {
	ID    string
	Price int64
	Name  string
}

// SnapCreateParams describes a payment session to open with the gateway.
type SnapCreateParams struct {
	GatewayOrderID string
	GrossAmount    int64
	Items          []SnapItem
	CustomerName   string
	CustomerEmail  string
}

// SnapSession is the gateway's handle for a created payment session.
type SnapSession struct {
	Token       string
	RedirectURL string
}

// NewClient initializes the Midtrans wrapper and selects the environment
// from the server key prefix.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}
	clientKey := strings.TrimSpace(cfg.ClientKey)
	if clientKey == "" {
		return nil, errClientKeyRequired
	}

	env := EnvironmentFor(serverKey)
	sdk := &snap.Client{}
	sdk.New(serverKey, env)

	c := &Client{
		snap:      sdk,
		serverKey: serverKey,
		clientKey: clientKey,
		env:       env,
		logger:    logg,
	}

	logg.Info(ctx, "midtrans client initialized")
	return c, nil
}

// EnvironmentFor maps a server key to the Midtrans environment it belongs to.
func EnvironmentFor(serverKey string) mt.EnvironmentType {
	if strings.HasPrefix(serverKey, sandboxKeyPrefix) {
		return mt.Sandbox
	}
	return mt.Production
}

// ClientKey returns the publishable key the frontend embeds in Snap.js.
func (c *Client) ClientKey() string {
	if c == nil {
		return ""
	}
	return c.clientKey
}

// Environment reports the selected Midtrans environment.
func (c *Client) Environment() mt.EnvironmentType {
	if c == nil {
		return mt.Sandbox
	}
	return c.env
}

// CreateSnapTransaction opens a Snap payment session and returns its token.
func (c *Client) CreateSnapTransaction(ctx context.Context, params SnapCreateParams) (*SnapSession, error) {
	if c == nil || c.snap == nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentUnavailable, "midtrans client not initialized")
	}
	if strings.TrimSpace(params.GatewayOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}
	if params.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	items := make([]mt.ItemDetails, 0, len(params.Items))
	for _, item := range params.Items {
		items = append(items, mt.ItemDetails{
			ID:    item.ID,
			Price: item.Price,
			Qty:   1,
			Name:  truncateItemName(item.Name),
		})
	}

	req := &snap.Request{
		TransactionDetails: mt.TransactionDetails{
			OrderID:  params.GatewayOrderID,
			GrossAmt: params.GrossAmount,
		},
		Items: &items,
		CustomerDetail: &mt.CustomerDetails{
			FName: params.CustomerName,
			Email: params.CustomerEmail,
		},
	}

	c.log(ctx, "request", "create_snap_transaction", map[string]any{
		"gateway_order_id": params.GatewayOrderID,
		"gross_amount":     params.GrossAmount,
		"item_count":       len(items),
	})

	resp, mtErr := c.snap.CreateTransaction(req)
	if mtErr != nil {
		c.log(ctx, "error", "create_snap_transaction", map[string]any{"error": mtErr.Error()})
		return nil, c.mapMidtransError(mtErr, "create snap transaction")
	}
	if resp == nil || resp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentSetup, "midtrans returned an empty snap token")
	}

	c.log(ctx, "response", "create_snap_transaction", map[string]any{
		"gateway_order_id": params.GatewayOrderID,
	})

	return &SnapSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// VerifySignature checks a webhook notification's SHA-512 signature.
// Midtrans signs hex(sha512(order_id + status_code + gross_amount + server_key)).
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	if c == nil || c.serverKey == "" {
		return false
	}
	expected := Signature(orderID, statusCode, grossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// Signature computes the notification signature for the given fields.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Snap caps item names at 50 characters.
func truncateItemName(name string) string {
	if name == "" {
		return "Layanan Desain"
	}
	if len(name) > 50 {
		return name[:50]
	}
	return name
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("midtrans %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("midtrans %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "key", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapMidtransError(err *mt.Error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case err.StatusCode == 401:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, fmt.Sprintf("midtrans %s failed", op))
	case err.StatusCode >= 400 && err.StatusCode < 500:
		return pkgerrors.Wrap(pkgerrors.CodePaymentSetup, err, fmt.Sprintf("midtrans %s failed", op))
	default:
		return pkgerrors.Wrap(pkgerrors.CodePaymentUnavailable, err, fmt.Sprintf("midtrans %s failed", op))
	}
}

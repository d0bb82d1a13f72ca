package payments

// SessionDTO hands the frontend everything needed to invoke the Snap widget.
type SessionDTO struct {
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url,omitempty"`
	ClientKey   string `json:"client_key"`
	Environment string `json:"environment"`
}

// NotificationPayload is the Midtrans HTTP notification body. Only the fields
// the handler inspects are mapped; everything else rides along unread.
type NotificationPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
}

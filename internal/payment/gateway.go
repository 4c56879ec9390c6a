package payment

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dokanlabs/dokan/internal/domain"
)

// Status is the normalized outcome a gateway callback reports.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Request carries everything a gateway needs to open a payment session.
type Request struct {
	// OrderID is our internal order identifier, echoed back in redirects.
	OrderID string

	// OrderNumber is the human-readable invoice number sent to the gateway.
	OrderNumber string

	// AmountCents is the charge amount in the smallest currency unit (poisha).
	AmountCents int64

	// Currency code, "BDT" for every regional gateway.
	Currency string

	// Customer is the payer forwarded to the gateway's checkout page.
	Customer domain.Customer
}

// Session is the result of initiating a payment with a gateway.
type Session struct {
	// CorrelationID is the gateway-assigned id (paymentID, paymentRefId,
	// tran_id, transactionId) used to match the callback to the order.
	CorrelationID string

	// PaymentURL is where the customer's browser is sent to pay.
	PaymentURL string
}

// CallbackResult is the normalized interpretation of a gateway callback.
type CallbackResult struct {
	CorrelationID string
	Status        Status

	// RawStatus is the gateway's own status string, kept for logging.
	RawStatus string
}

// Gateway is one payment provider. Implementations are structural peers and
// differ only in wire format: token exchange for bKash, HMAC-signed JSON for
// Nagad and Rocket, form POST plus MD5 verify-sign for SSLCommerz, and a
// no-network synchronous variant for cash on delivery.
type Gateway interface {
	// Name returns the registry key ("bkash", "nagad", ...).
	Name() string

	// CreateSession opens a remote payment session and returns the redirect
	// URL plus the gateway's correlation id. Implementations must respect ctx
	// cancellation and their configured timeout.
	CreateSession(ctx context.Context, req Request) (*Session, error)

	// VerifyCallback authenticates an inbound callback before any state is
	// touched. Depending on the gateway this is a local signature check or a
	// server-to-server confirmation round-trip.
	VerifyCallback(ctx context.Context, params url.Values) error

	// ParseCallback extracts the correlation id and normalized status from a
	// callback payload.
	ParseCallback(params url.Values) (*CallbackResult, error)
}

const defaultTimeout = 30 * time.Second

// newHTTPClient builds the outbound client every adapter shares. A hung
// gateway can no longer hold a request open indefinitely.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

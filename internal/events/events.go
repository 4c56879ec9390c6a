// Package events publishes order lifecycle notifications for downstream
// consumers (fulfilment, notifications, analytics). Publishing is best
// effort: a broker outage never fails the customer-facing request.
package events

import (
	"context"
	"time"
)

// Subjects for the order lifecycle stream.
const (
	SubjectOrderCreated      = "orders.created"
	SubjectOrderCODConfirmed = "orders.cod_confirmed"
	SubjectPaymentCompleted  = "payments.completed"
	SubjectPaymentFailed     = "payments.failed"
)

// OrderCreated is emitted after checkout commits.
type OrderCreated struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	TotalCents  int64     `json:"total_cents"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderCODConfirmed is emitted when a cash-on-delivery order is confirmed.
type OrderCODConfirmed struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PaymentCompleted is emitted when a gateway callback settles an order as paid.
type PaymentCompleted struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Gateway       string    `json:"gateway"`
	CorrelationID string    `json:"correlation_id"`
	AmountCents   int64     `json:"amount_cents"`
	CompletedAt   time.Time `json:"completed_at"`
}

// PaymentFailed is emitted when a callback settles an order as failed or
// cancelled. Stock has already been restocked by the time this fires.
type PaymentFailed struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Gateway       string    `json:"gateway"`
	CorrelationID string    `json:"correlation_id"`
	Reason        string    `json:"reason"`
	FailedAt      time.Time `json:"failed_at"`
}

// Publisher sends one event to a subject. Implementations marshal the payload
// themselves.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

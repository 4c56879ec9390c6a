package domain

// OrderStatus is the canonical order lifecycle state.
// Exactly one vocabulary is used by every endpoint; gateway callbacks may only
// move an order between the states listed here.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed" // COD orders, awaiting delivery payment
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// PaymentStatus is the payment sub-state of an order or payment attempt.
// Transitions are one-directional: pending -> paid or pending -> failed.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// ValidOrderStatus reports whether s is a member of the canonical status set.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// ShippingAddress is captured once, at checkout time. Gateway initiation does
// not re-snapshot it.
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
}

// CheckoutItem is one requested line in a checkout request, keyed by the
// product's merchant-assigned SKU.
type CheckoutItem struct {
	SKU      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

// Customer carries the payer details forwarded to a gateway at initiation.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

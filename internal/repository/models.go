package repository

import (
	"time"

	"github.com/dokanlabs/dokan/internal/domain"
)

// Product is a catalog row. SKU is the merchant-assigned identifier and the
// only product identifier exposed through the API.
type Product struct {
	ID                 string
	SKU                string
	Name               string
	Brand              string
	Category           string
	Description        string
	PriceCents         int64
	DiscountPriceCents int64
	Stock              int32
	Rating             float64
	ImageURLs          []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UnitPriceCents returns the effective unit price: the discounted price when a
// discount is set, the list price otherwise.
func (p Product) UnitPriceCents() int64 {
	if p.DiscountPriceCents > 0 {
		return p.DiscountPriceCents
	}
	return p.PriceCents
}

// CartItem is one (user, product) row. Unique per pair.
type CartItem struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItemDetail is a cart row joined with its product for display and
// checkout pricing.
type CartItemDetail struct {
	CartItem
	SKU                string
	Name               string
	PriceCents         int64
	DiscountPriceCents int64
	Stock              int32
	ImageURL           string
}

// Order is an order header. Items are snapshotted separately in order_items.
type Order struct {
	ID               string
	OrderNumber      string
	UserID           string
	Status           domain.OrderStatus
	PaymentStatus    domain.PaymentStatus
	PaymentMethod    string
	SubtotalCents    int64
	TotalCents       int64
	ShippingName     string
	ShippingPhone    string
	ShippingAddress  string
	ShippingCity     string
	ShippingPostcode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is an immutable snapshot of a product line at order-creation time.
// Later catalog edits never change it.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	SKU            string
	Name           string
	UnitPriceCents int64
	Quantity       int32
	ImageURL       string
}

// PaymentAttempt records one gateway session for an order. CorrelationID is
// the gateway-assigned id used to match the asynchronous callback back to the
// order; it is unique per gateway.
type PaymentAttempt struct {
	ID            string
	OrderID       string
	Gateway       string
	CorrelationID string
	AmountCents   int64
	Status        domain.PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Review is a product review row.
type Review struct {
	ID        string
	ProductID string
	Name      string
	Email     string
	Rating    int32
	Title     string
	Comment   string
	Verified  bool
	CreatedAt time.Time
}

// RatingStats is the aggregate used to recompute a product's rating.
type RatingStats struct {
	Average float64
	Count   int64
}

// Param structs

type DecrementProductStockParams struct {
	ProductID string
	Quantity  int32
}

type IncrementProductStockParams struct {
	ProductID string
	Quantity  int32
}

type UpdateProductRatingParams struct {
	ProductID string
	Rating    float64
}

type UpsertCartItemParams struct {
	UserID    string
	ProductID string
	Quantity  int32
}

type SetCartItemQuantityParams struct {
	UserID    string
	ProductID string
	Quantity  int32
}

type DeleteCartItemParams struct {
	UserID    string
	ProductID string
}

type CreateOrderParams struct {
	OrderNumber      string
	UserID           string
	Status           domain.OrderStatus
	PaymentStatus    domain.PaymentStatus
	PaymentMethod    string
	SubtotalCents    int64
	TotalCents       int64
	ShippingName     string
	ShippingPhone    string
	ShippingAddress  string
	ShippingCity     string
	ShippingPostcode string
}

type CreateOrderItemParams struct {
	OrderID        string
	ProductID      string
	SKU            string
	Name           string
	UnitPriceCents int64
	Quantity       int32
	ImageURL       string
}

type MarkOrderPaidParams struct {
	ID            string
	PaymentMethod string
}

type CreatePaymentAttemptParams struct {
	OrderID       string
	Gateway       string
	CorrelationID string
	AmountCents   int64
}

type GetPaymentAttemptByCorrelationParams struct {
	Gateway       string
	CorrelationID string
}

type SettlePaymentAttemptParams struct {
	ID     string
	Status domain.PaymentStatus
}

type CreateReviewParams struct {
	ProductID string
	Name      string
	Email     string
	Rating    int32
	Title     string
	Comment   string
}

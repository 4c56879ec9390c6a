package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/events"
	"github.com/dokanlabs/dokan/internal/repository"
	"github.com/dokanlabs/dokan/internal/telemetry"
)

// CheckoutInput is a checkout request. When Items is empty the user's cart
// supplies the lines.
type CheckoutInput struct {
	UserID   string                 `json:"user_id"`
	Items    []domain.CheckoutItem  `json:"items"`
	Customer domain.Customer        `json:"customer"`
	Shipping domain.ShippingAddress `json:"shipping"`
}

// OrderDetail is an order header with its snapshot lines.
type OrderDetail struct {
	Order repository.Order       `json:"order"`
	Items []repository.OrderItem `json:"items"`
}

// CheckoutService turns a cart (or an explicit item list) into a pending
// order. Everything happens in one database transaction: order insert, line
// snapshots, guarded stock decrements, and removal of the consumed cart rows.
// Insufficient stock on any line rolls the whole thing back.
type CheckoutService interface {
	CreateOrder(ctx context.Context, input CheckoutInput) (*OrderDetail, error)
}

type checkoutService struct {
	store     repository.Store
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewCheckoutService(store repository.Store, publisher events.Publisher, logger zerolog.Logger) CheckoutService {
	return &checkoutService{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

func (s *checkoutService) CreateOrder(ctx context.Context, input CheckoutInput) (*OrderDetail, error) {
	const op = "checkout.create"

	if input.UserID == "" {
		return nil, domain.Invalid(op, "User id is required")
	}
	if input.Shipping.Name == "" || input.Shipping.Phone == "" || input.Shipping.Address == "" {
		return nil, domain.Invalid(op, "Shipping name, phone, and address are required")
	}

	items := input.Items
	fromCart := len(items) == 0
	if fromCart {
		rows, err := s.store.GetCartItems(ctx, input.UserID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load cart")
		}
		for _, row := range rows {
			items = append(items, domain.CheckoutItem{SKU: row.SKU, Quantity: row.Quantity})
		}
	}
	if len(items) == 0 {
		return nil, errEmptyCheckout(op)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, errInvalidQuantity(op)
		}
	}

	var detail OrderDetail
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		// Resolve every SKU and price the order before touching stock.
		products := make([]repository.Product, len(items))
		var subtotal int64
		for i, item := range items {
			product, err := q.GetProductBySKU(ctx, item.SKU)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return errProductNotFound(op, item.SKU)
				}
				return err
			}
			products[i] = product
			subtotal += product.UnitPriceCents() * int64(item.Quantity)
		}

		order, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			OrderNumber:      newOrderNumber(),
			UserID:           input.UserID,
			Status:           domain.OrderStatusPending,
			PaymentStatus:    domain.PaymentStatusPending,
			PaymentMethod:    "",
			SubtotalCents:    subtotal,
			TotalCents:       subtotal,
			ShippingName:     input.Shipping.Name,
			ShippingPhone:    input.Shipping.Phone,
			ShippingAddress:  input.Shipping.Address,
			ShippingCity:     input.Shipping.City,
			ShippingPostcode: input.Shipping.Postcode,
		})
		if err != nil {
			return err
		}
		detail.Order = order

		for i, item := range items {
			product := products[i]

			// Guarded decrement: zero rows means someone else took the
			// stock since we read it, so the order cannot be honored.
			affected, err := q.DecrementProductStock(ctx, repository.DecrementProductStockParams{
				ProductID: product.ID,
				Quantity:  item.Quantity,
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				return errInsufficientStock(op, item.SKU)
			}

			imageURL := ""
			if len(product.ImageURLs) > 0 {
				imageURL = product.ImageURLs[0]
			}
			line, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:        order.ID,
				ProductID:      product.ID,
				SKU:            product.SKU,
				Name:           product.Name,
				UnitPriceCents: product.UnitPriceCents(),
				Quantity:       item.Quantity,
				ImageURL:       imageURL,
			})
			if err != nil {
				return err
			}
			detail.Items = append(detail.Items, line)

			if err := q.DeleteCartItem(ctx, repository.DeleteCartItemParams{
				UserID:    input.UserID,
				ProductID: product.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.Internal(err, op, "checkout failed")
	}

	telemetry.Business.OrdersCreated.Inc()
	telemetry.Business.OrderValue.Observe(float64(detail.Order.TotalCents) / 100)

	s.logger.Info().
		Str("order_id", detail.Order.ID).
		Str("order_number", detail.Order.OrderNumber).
		Int64("total_cents", detail.Order.TotalCents).
		Int("items", len(detail.Items)).
		Msg("order created")

	if err := s.publisher.Publish(ctx, events.SubjectOrderCreated, events.OrderCreated{
		OrderID:     detail.Order.ID,
		OrderNumber: detail.Order.OrderNumber,
		UserID:      detail.Order.UserID,
		TotalCents:  detail.Order.TotalCents,
		ItemCount:   len(detail.Items),
		CreatedAt:   detail.Order.CreatedAt,
	}); err != nil {
		s.logger.Warn().Err(err).Str("order_id", detail.Order.ID).
			Msg("failed to publish order created event")
	}

	return &detail, nil
}

// newOrderNumber mints a human-readable invoice number, date plus a random
// suffix: ORD-20260829-1A2B3C4D.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + time.Now().Format("20060102") + "-" + suffix
}

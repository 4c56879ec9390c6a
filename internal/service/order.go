package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/events"
	"github.com/dokanlabs/dokan/internal/repository"
)

// OrderService reads orders back and handles the cash-on-delivery
// confirmation path, the one payment flow with no gateway round-trip.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*OrderDetail, error)
	ListOrders(ctx context.Context, userID string) ([]repository.Order, error)
	ConfirmCOD(ctx context.Context, orderID string) (*OrderDetail, error)
}

type orderService struct {
	store     repository.Store
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewOrderService(store repository.Store, publisher events.Publisher, logger zerolog.Logger) OrderService {
	return &orderService{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*OrderDetail, error) {
	const op = "order.get"

	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errOrderNotFound(op, id)
		}
		return nil, domain.Internal(err, op, "failed to fetch order")
	}

	items, err := s.store.GetOrderItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch order items")
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string) ([]repository.Order, error) {
	const op = "order.list"

	if userID == "" {
		return nil, domain.Invalid(op, "User id is required")
	}

	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, nil
}

// ConfirmCOD moves a pending order to confirmed with payment method cod.
// Payment status stays pending until the courier collects; stock was already
// reserved at checkout, so nothing else changes.
func (s *orderService) ConfirmCOD(ctx context.Context, orderID string) (*OrderDetail, error) {
	const op = "order.confirm_cod"

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errOrderNotFound(op, orderID)
		}
		return nil, domain.Internal(err, op, "failed to fetch order")
	}

	affected, err := s.store.ConfirmOrderCOD(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to confirm order")
	}
	if affected == 0 {
		return nil, errOrderNotPending(op, order.OrderNumber)
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("order_number", order.OrderNumber).
		Msg("cod order confirmed")

	if err := s.publisher.Publish(ctx, events.SubjectOrderCODConfirmed, events.OrderCODConfirmed{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		ConfirmedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).
			Msg("failed to publish cod confirmed event")
	}

	return s.GetOrder(ctx, orderID)
}

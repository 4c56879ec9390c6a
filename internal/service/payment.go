package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/events"
	"github.com/dokanlabs/dokan/internal/payment"
	"github.com/dokanlabs/dokan/internal/repository"
	"github.com/dokanlabs/dokan/internal/telemetry"
)

// PaymentSession is what initiation returns to the client: where to send the
// customer and which attempt was opened.
type PaymentSession struct {
	OrderID       string `json:"order_id"`
	Gateway       string `json:"gateway"`
	CorrelationID string `json:"correlation_id"`
	PaymentURL    string `json:"payment_url"`
}

// CallbackOutcome is the result of processing one gateway callback.
type CallbackOutcome struct {
	OrderID          string         `json:"order_id"`
	OrderNumber      string         `json:"order_number"`
	Status           payment.Status `json:"status"`
	AlreadyProcessed bool           `json:"already_processed"`
}

// PaymentService owns payment initiation and callback reconciliation. The
// reconciler is the only code that settles orders: it verifies the callback's
// authenticity first, then applies the terminal transition exactly once, and
// restocks reserved inventory when the payment terminally fails.
type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID, gatewayName string) (*PaymentSession, error)
	HandleCallback(ctx context.Context, gatewayName string, params url.Values) (*CallbackOutcome, error)
}

type paymentService struct {
	store     repository.Store
	registry  *payment.Registry
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewPaymentService(store repository.Store, registry *payment.Registry, publisher events.Publisher, logger zerolog.Logger) PaymentService {
	return &paymentService{
		store:     store,
		registry:  registry,
		publisher: publisher,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderID, gatewayName string) (*PaymentSession, error) {
	const op = "payment.initiate"

	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return nil, domain.Invalid(op, "Unknown payment gateway '"+gatewayName+"'")
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errOrderNotFound(op, orderID)
		}
		return nil, domain.Internal(err, op, "failed to fetch order")
	}
	if order.Status != domain.OrderStatusPending || order.PaymentStatus != domain.PaymentStatusPending {
		return nil, errOrderNotPending(op, order.OrderNumber)
	}

	session, err := gw.CreateSession(ctx, payment.Request{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		AmountCents: order.TotalCents,
		Currency:    "BDT",
		Customer: domain.Customer{
			Name:  order.ShippingName,
			Phone: order.ShippingPhone,
		},
	})
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotSupported) {
			return nil, domain.Invalid(op, "Gateway '"+gatewayName+"' settles synchronously; use the COD confirmation endpoint")
		}
		telemetry.Business.PaymentInitFailed.WithLabelValues(gatewayName).Inc()
		return nil, domain.Internal(err, op, "failed to create payment session")
	}

	if _, err := s.store.CreatePaymentAttempt(ctx, repository.CreatePaymentAttemptParams{
		OrderID:       order.ID,
		Gateway:       gatewayName,
		CorrelationID: session.CorrelationID,
		AmountCents:   order.TotalCents,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to record payment attempt")
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("gateway", gatewayName).
		Str("correlation_id", session.CorrelationID).
		Msg("payment session created")

	return &PaymentSession{
		OrderID:       order.ID,
		Gateway:       gatewayName,
		CorrelationID: session.CorrelationID,
		PaymentURL:    session.PaymentURL,
	}, nil
}

// HandleCallback reconciles one gateway callback against the recorded
// attempt. Order of operations is deliberate: verify authenticity before
// reading any state, settle the attempt row exactly once, and only then apply
// the order transition. A replayed callback settles zero rows and reports
// AlreadyProcessed instead of double-applying.
func (s *paymentService) HandleCallback(ctx context.Context, gatewayName string, params url.Values) (*CallbackOutcome, error) {
	const op = "payment.callback"

	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return nil, domain.Invalid(op, "Unknown payment gateway '"+gatewayName+"'")
	}

	if err := gw.VerifyCallback(ctx, params); err != nil {
		telemetry.Business.CallbackRejected.WithLabelValues(gatewayName).Inc()
		s.logger.Warn().Err(err).Str("gateway", gatewayName).Msg("callback verification failed")
		return nil, domain.Unauthorized(op, "Callback verification failed")
	}

	result, err := gw.ParseCallback(params)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "Malformed callback payload")
	}

	attempt, err := s.store.GetPaymentAttemptByCorrelation(ctx, repository.GetPaymentAttemptByCorrelationParams{
		Gateway:       gatewayName,
		CorrelationID: result.CorrelationID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "Payment attempt", result.CorrelationID)
		}
		return nil, domain.Internal(err, op, "failed to locate payment attempt")
	}

	order, err := s.store.GetOrderByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to fetch order")
	}

	outcome := &CallbackOutcome{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      result.Status,
	}

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		attemptStatus := domain.PaymentStatusFailed
		if result.Status == payment.StatusSuccess {
			attemptStatus = domain.PaymentStatusPaid
		}

		settled, err := q.SettlePaymentAttempt(ctx, repository.SettlePaymentAttemptParams{
			ID:     attempt.ID,
			Status: attemptStatus,
		})
		if err != nil {
			return err
		}
		if settled == 0 {
			outcome.AlreadyProcessed = true
			return nil
		}

		if result.Status == payment.StatusSuccess {
			affected, err := q.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{
				ID:            order.ID,
				PaymentMethod: gatewayName,
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				// Another attempt settled this order first.
				outcome.AlreadyProcessed = true
				return nil
			}
			// Anything still in the cart is stale after a paid order.
			return q.ClearCart(ctx, order.UserID)
		}

		affected, err := q.MarkOrderFailed(ctx, order.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			outcome.AlreadyProcessed = true
			return nil
		}
		return s.restockOrder(ctx, q, order.ID)
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to settle payment")
	}

	if outcome.AlreadyProcessed {
		s.logger.Info().
			Str("gateway", gatewayName).
			Str("correlation_id", result.CorrelationID).
			Msg("duplicate callback ignored")
		return outcome, nil
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("gateway", gatewayName).
		Str("status", string(result.Status)).
		Str("raw_status", result.RawStatus).
		Msg("payment settled")

	now := time.Now().UTC()
	if result.Status == payment.StatusSuccess {
		telemetry.Business.PaymentSucceeded.WithLabelValues(gatewayName).Inc()
		if err := s.publisher.Publish(ctx, events.SubjectPaymentCompleted, events.PaymentCompleted{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Gateway:       gatewayName,
			CorrelationID: result.CorrelationID,
			AmountCents:   attempt.AmountCents,
			CompletedAt:   now,
		}); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).
				Msg("failed to publish payment completed event")
		}
	} else {
		telemetry.Business.PaymentFailed.WithLabelValues(gatewayName).Inc()
		if err := s.publisher.Publish(ctx, events.SubjectPaymentFailed, events.PaymentFailed{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Gateway:       gatewayName,
			CorrelationID: result.CorrelationID,
			Reason:        result.RawStatus,
			FailedAt:      now,
		}); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).
				Msg("failed to publish payment failed event")
		}
	}

	return outcome, nil
}

// restockOrder returns every reserved unit of a terminally failed order to
// inventory. Runs inside the settlement transaction.
func (s *paymentService) restockOrder(ctx context.Context, q repository.Querier, orderID string) error {
	items, err := q.GetOrderItems(ctx, orderID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := q.IncrementProductStock(ctx, repository.IncrementProductStockParams{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Package worker consumes order lifecycle events and dispatches customer
// notifications. It runs as its own process so a flood of orders never slows
// the storefront.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/events"
)

const queueGroup = "dokan-workers"

// Worker subscribes to the order and payment subjects and processes each
// event. Processing is currently notification dispatch; handlers are small on
// purpose so new consumers hang off the same switch.
type Worker struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

func New(natsURL string, logger zerolog.Logger) (*Worker, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("dokan-worker"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("worker: connect to nats: %w", err)
	}
	return &Worker{conn: conn, logger: logger.With().Str("component", "worker").Logger()}, nil
}

// Run subscribes and blocks until ctx is cancelled. Subscriptions share a
// queue group so multiple worker replicas split the load.
func (w *Worker) Run(ctx context.Context) error {
	subjects := []string{"orders.>", "payments.>"}
	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := w.conn.QueueSubscribe(subject, queueGroup, w.handle)
		if err != nil {
			return fmt.Errorf("worker: subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	w.logger.Info().Strs("subjects", subjects).Msg("worker started")

	<-ctx.Done()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			w.logger.Warn().Err(err).Msg("subscription drain failed")
		}
	}
	w.conn.Close()
	return nil
}

func (w *Worker) handle(msg *nats.Msg) {
	switch msg.Subject {
	case events.SubjectOrderCreated:
		var evt events.OrderCreated
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			w.logger.Error().Err(err).Str("subject", msg.Subject).Msg("malformed event")
			return
		}
		w.logger.Info().
			Str("order_number", evt.OrderNumber).
			Int64("total_cents", evt.TotalCents).
			Msg("sending order confirmation")

	case events.SubjectOrderCODConfirmed:
		var evt events.OrderCODConfirmed
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			w.logger.Error().Err(err).Str("subject", msg.Subject).Msg("malformed event")
			return
		}
		w.logger.Info().
			Str("order_number", evt.OrderNumber).
			Msg("sending cod confirmation")

	case events.SubjectPaymentCompleted:
		var evt events.PaymentCompleted
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			w.logger.Error().Err(err).Str("subject", msg.Subject).Msg("malformed event")
			return
		}
		w.logger.Info().
			Str("order_number", evt.OrderNumber).
			Str("gateway", evt.Gateway).
			Msg("sending payment receipt")

	case events.SubjectPaymentFailed:
		var evt events.PaymentFailed
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			w.logger.Error().Err(err).Str("subject", msg.Subject).Msg("malformed event")
			return
		}
		w.logger.Info().
			Str("order_number", evt.OrderNumber).
			Str("gateway", evt.Gateway).
			Str("reason", evt.Reason).
			Msg("sending payment failure notice")

	default:
		w.logger.Debug().Str("subject", msg.Subject).Msg("ignoring event")
	}
}

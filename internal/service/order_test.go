package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/events"
	"github.com/dokanlabs/dokan/internal/repository"
	"github.com/dokanlabs/dokan/internal/service"
)

func seedOrder(t *testing.T, store *fakeStore, publisher *events.MockPublisher) *service.OrderDetail {
	t.Helper()
	store.addProduct(repository.Product{
		SKU: "COS001", Name: "Rose Glow Face Serum", PriceCents: 2499, Stock: 10,
	})
	checkout := service.NewCheckoutService(store, publisher, zerolog.Nop())
	detail, err := checkout.CreateOrder(context.Background(), service.CheckoutInput{
		UserID:   "user-1",
		Items:    []domain.CheckoutItem{{SKU: "COS001", Quantity: 1}},
		Shipping: testShipping,
	})
	require.NoError(t, err)
	return detail
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	publisher := events.NewMockPublisher()
	created := seedOrder(t, store, publisher)

	svc := service.NewOrderService(store, publisher, zerolog.Nop())

	detail, err := svc.GetOrder(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Order.OrderNumber, detail.Order.OrderNumber)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "COS001", detail.Items[0].SKU)

	_, err = svc.GetOrder(ctx, "missing")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	publisher := events.NewMockPublisher()
	seedOrder(t, store, publisher)

	svc := service.NewOrderService(store, publisher, zerolog.Nop())

	orders, err := svc.ListOrders(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = svc.ListOrders(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConfirmCOD(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	publisher := events.NewMockPublisher()
	created := seedOrder(t, store, publisher)

	svc := service.NewOrderService(store, publisher, zerolog.Nop())

	detail, err := svc.ConfirmCOD(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, detail.Order.Status)
	assert.Equal(t, "cod", detail.Order.PaymentMethod)
	// Cash is collected on delivery, payment stays pending.
	assert.Equal(t, domain.PaymentStatusPending, detail.Order.PaymentStatus)

	require.Len(t, publisher.BySubject(events.SubjectOrderCODConfirmed), 1)

	// Confirming twice is a conflict, not a silent no-op.
	_, err = svc.ConfirmCOD(ctx, created.Order.ID)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestConfirmCODUnknownOrder(t *testing.T) {
	store := newFakeStore()
	publisher := events.NewMockPublisher()
	svc := service.NewOrderService(store, publisher, zerolog.Nop())

	_, err := svc.ConfirmCOD(context.Background(), "missing")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

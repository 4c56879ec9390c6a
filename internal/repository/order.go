package repository

import (
	"context"

	"github.com/dokanlabs/dokan/internal/domain"
)

const orderColumns = `id::text, order_number, user_id, status, payment_status, payment_method,
	subtotal_cents, total_cents, shipping_name, shipping_phone, shipping_address,
	shipping_city, shipping_postcode, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.SubtotalCents, &o.TotalCents, &o.ShippingName, &o.ShippingPhone, &o.ShippingAddress,
		&o.ShippingCity, &o.ShippingPostcode, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateOrder inserts an order header.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, user_id, status, payment_status, payment_method,
			subtotal_cents, total_cents, shipping_name, shipping_phone,
			shipping_address, shipping_city, shipping_postcode
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.UserID, arg.Status, arg.PaymentStatus, arg.PaymentMethod,
		arg.SubtotalCents, arg.TotalCents, arg.ShippingName, arg.ShippingPhone,
		arg.ShippingAddress, arg.ShippingCity, arg.ShippingPostcode,
	)
	return scanOrder(row)
}

// CreateOrderItem inserts one snapshot line for an order.
func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, sku, name, unit_price_cents, quantity, image_url)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
		RETURNING id::text, order_id::text, product_id::text, sku, name, unit_price_cents, quantity, image_url`,
		arg.OrderID, arg.ProductID, arg.SKU, arg.Name, arg.UnitPriceCents, arg.Quantity, arg.ImageURL,
	)

	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SKU, &it.Name,
		&it.UnitPriceCents, &it.Quantity, &it.ImageURL)
	return it, err
}

// GetOrderByID fetches one order header.
func (q *Queries) GetOrderByID(ctx context.Context, id string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, id)
	return scanOrder(row)
}

// GetOrderItems returns the snapshot lines of an order.
func (q *Queries) GetOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id::text, order_id::text, product_id::text, sku, name, unit_price_cents, quantity, image_url
		FROM order_items
		WHERE order_id = $1::uuid
		ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SKU, &it.Name,
			&it.UnitPriceCents, &it.Quantity, &it.ImageURL); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrdersByUser returns a user's orders, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// MarkOrderPaid applies the terminal paid transition. The WHERE guard makes the
// transition apply at most once: zero rows affected means another callback got
// there first (or the order was never pending).
func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_method = $4, updated_at = now()
		WHERE id = $1::uuid AND payment_status = $5`,
		arg.ID, domain.OrderStatusPaid, domain.PaymentStatusPaid, arg.PaymentMethod, domain.PaymentStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkOrderFailed applies the terminal failed transition, guarded the same way
// as MarkOrderPaid.
func (q *Queries) MarkOrderFailed(ctx context.Context, id string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, updated_at = now()
		WHERE id = $1::uuid AND payment_status = $4`,
		id, domain.OrderStatusFailed, domain.PaymentStatusFailed, domain.PaymentStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ConfirmOrderCOD moves a pending cash-on-delivery order to confirmed.
// Payment status stays pending until delivery.
func (q *Queries) ConfirmOrderCOD(ctx context.Context, id string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_method = 'cod', updated_at = now()
		WHERE id = $1::uuid AND status = $3`,
		id, domain.OrderStatusConfirmed, domain.OrderStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreatePaymentAttempt records a gateway session and its correlation id.
func (q *Queries) CreatePaymentAttempt(ctx context.Context, arg CreatePaymentAttemptParams) (PaymentAttempt, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO payment_attempts (order_id, gateway, correlation_id, amount_cents, status)
		VALUES ($1::uuid, $2, $3, $4, $5)
		RETURNING id::text, order_id::text, gateway, correlation_id, amount_cents, status, created_at, updated_at`,
		arg.OrderID, arg.Gateway, arg.CorrelationID, arg.AmountCents, domain.PaymentStatusPending,
	)

	var a PaymentAttempt
	err := row.Scan(&a.ID, &a.OrderID, &a.Gateway, &a.CorrelationID,
		&a.AmountCents, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// GetPaymentAttemptByCorrelation locates the attempt a callback refers to.
func (q *Queries) GetPaymentAttemptByCorrelation(ctx context.Context, arg GetPaymentAttemptByCorrelationParams) (PaymentAttempt, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id::text, order_id::text, gateway, correlation_id, amount_cents, status, created_at, updated_at
		FROM payment_attempts
		WHERE gateway = $1 AND correlation_id = $2`,
		arg.Gateway, arg.CorrelationID,
	)

	var a PaymentAttempt
	err := row.Scan(&a.ID, &a.OrderID, &a.Gateway, &a.CorrelationID,
		&a.AmountCents, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// SettlePaymentAttempt moves an attempt out of pending exactly once.
func (q *Queries) SettlePaymentAttempt(ctx context.Context, arg SettlePaymentAttemptParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE payment_attempts
		SET status = $2, updated_at = now()
		WHERE id = $1::uuid AND status = $3`,
		arg.ID, arg.Status, domain.PaymentStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

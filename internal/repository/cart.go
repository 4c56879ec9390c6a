package repository

import (
	"context"
)

// GetCartItems returns a user's cart rows joined with product details,
// oldest row first so the cart renders in the order items were added.
func (q *Queries) GetCartItems(ctx context.Context, userID string) ([]CartItemDetail, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ci.id::text, ci.user_id, ci.product_id::text, ci.quantity, ci.created_at, ci.updated_at,
		       p.sku, p.name, p.price_cents, p.discount_price_cents, p.stock,
		       COALESCE(p.image_urls[1], '')
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItemDetail
	for rows.Next() {
		var it CartItemDetail
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
			&it.SKU, &it.Name, &it.PriceCents, &it.DiscountPriceCents, &it.Stock, &it.ImageURL,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertCartItem inserts a cart row or, when the (user, product) pair already
// exists, atomically increments its quantity. Repeat adds never race.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2::uuid, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id::text, user_id, product_id::text, quantity, created_at, updated_at`,
		arg.UserID, arg.ProductID, arg.Quantity,
	)

	var it CartItem
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// SetCartItemQuantity replaces the quantity of a row, creating it if absent.
// Callers are expected to delete instead when the quantity is zero or below.
func (q *Queries) SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2::uuid, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		RETURNING id::text, user_id, product_id::text, quantity, created_at, updated_at`,
		arg.UserID, arg.ProductID, arg.Quantity,
	)

	var it CartItem
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// DeleteCartItem removes one (user, product) row.
func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2::uuid`,
		arg.UserID, arg.ProductID,
	)
	return err
}

// ClearCart removes every row for a user.
func (q *Queries) ClearCart(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

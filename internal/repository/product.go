package repository

import (
	"context"
)

const productColumns = `id::text, sku, name, brand, category, description,
	price_cents, discount_price_cents, stock, rating, image_urls, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Brand, &p.Category, &p.Description,
		&p.PriceCents, &p.DiscountPriceCents, &p.Stock, &p.Rating, &p.ImageURLs,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// ListProducts returns the full catalog, newest first.
func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProductBySKU fetches one product by its merchant-assigned SKU.
func (q *Queries) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	return scanProduct(row)
}

// DecrementProductStock decrements stock only when enough remains. Returns the
// number of rows updated: zero means insufficient stock and the caller must
// treat the operation as failed.
func (q *Queries) DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1::uuid AND stock >= $2`,
		arg.ProductID, arg.Quantity,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IncrementProductStock restores stock, used by the compensating restock when
// a payment terminally fails.
func (q *Queries) IncrementProductStock(ctx context.Context, arg IncrementProductStockParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1::uuid`,
		arg.ProductID, arg.Quantity,
	)
	return err
}

// UpdateProductRating writes a recomputed average rating onto the product.
func (q *Queries) UpdateProductRating(ctx context.Context, arg UpdateProductRatingParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE products
		SET rating = $2, updated_at = now()
		WHERE id = $1::uuid`,
		arg.ProductID, arg.Rating,
	)
	return err
}

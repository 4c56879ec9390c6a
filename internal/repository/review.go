package repository

import (
	"context"
)

const reviewColumns = `id::text, product_id::text, name, email, rating, title, comment, verified, created_at`

func scanReview(row interface{ Scan(dest ...interface{}) error }) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ProductID, &r.Name, &r.Email, &r.Rating,
		&r.Title, &r.Comment, &r.Verified, &r.CreatedAt)
	return r, err
}

// CreateReview inserts a review.
func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO reviews (product_id, name, email, rating, title, comment)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING `+reviewColumns,
		arg.ProductID, arg.Name, arg.Email, arg.Rating, arg.Title, arg.Comment,
	)
	return scanReview(row)
}

// ListReviewsByProduct returns reviews for a product, newest first.
func (q *Queries) ListReviewsByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1::uuid ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetReviewByID fetches one review.
func (q *Queries) GetReviewByID(ctx context.Context, id string) (Review, error) {
	row := q.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1::uuid`, id)
	return scanReview(row)
}

// MarkReviewVerified flags a review as moderated.
func (q *Queries) MarkReviewVerified(ctx context.Context, id string) (Review, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE reviews SET verified = true WHERE id = $1::uuid
		RETURNING `+reviewColumns,
		id,
	)
	return scanReview(row)
}

// DeleteReview removes a review and returns the deleted row so the caller can
// recompute the product rating.
func (q *Queries) DeleteReview(ctx context.Context, id string) (Review, error) {
	row := q.db.QueryRow(ctx, `
		DELETE FROM reviews WHERE id = $1::uuid
		RETURNING `+reviewColumns,
		id,
	)
	return scanReview(row)
}

// GetProductRatingStats aggregates review ratings for one product.
func (q *Queries) GetProductRatingStats(ctx context.Context, productID string) (RatingStats, error) {
	row := q.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1::uuid`,
		productID,
	)

	var s RatingStats
	err := row.Scan(&s.Average, &s.Count)
	return s, err
}

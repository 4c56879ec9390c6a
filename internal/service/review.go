package service

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/repository"
)

// ReviewInput is a submitted product review, keyed by SKU.
type ReviewInput struct {
	SKU     string `json:"sku"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int32  `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// ReviewService manages product reviews. Every write recomputes the product's
// average rating in the same transaction, so the denormalized rating on the
// product row never drifts from the review table.
type ReviewService interface {
	CreateReview(ctx context.Context, input ReviewInput) (repository.Review, error)
	ListReviews(ctx context.Context, sku string) ([]repository.Review, error)
	VerifyReview(ctx context.Context, id string) (repository.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

type reviewService struct {
	store  repository.Store
	logger zerolog.Logger
}

func NewReviewService(store repository.Store, logger zerolog.Logger) ReviewService {
	return &reviewService{
		store:  store,
		logger: logger.With().Str("service", "review").Logger(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, input ReviewInput) (repository.Review, error) {
	const op = "review.create"

	if input.Rating < 1 || input.Rating > 5 {
		return repository.Review{}, domain.Invalid(op, "Rating must be between 1 and 5")
	}
	if input.Name == "" || input.Comment == "" {
		return repository.Review{}, domain.Invalid(op, "Name and comment are required")
	}

	product, err := s.store.GetProductBySKU(ctx, input.SKU)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Review{}, errProductNotFound(op, input.SKU)
		}
		return repository.Review{}, domain.Internal(err, op, "failed to fetch product")
	}

	var review repository.Review
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		review, err = q.CreateReview(ctx, repository.CreateReviewParams{
			ProductID: product.ID,
			Name:      input.Name,
			Email:     input.Email,
			Rating:    input.Rating,
			Title:     input.Title,
			Comment:   input.Comment,
		})
		if err != nil {
			return err
		}
		return recomputeRating(ctx, q, product.ID)
	})
	if err != nil {
		return repository.Review{}, domain.Internal(err, op, "failed to create review")
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("sku", input.SKU).
		Int32("rating", input.Rating).
		Msg("review created")

	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, sku string) ([]repository.Review, error) {
	const op = "review.list"

	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errProductNotFound(op, sku)
		}
		return nil, domain.Internal(err, op, "failed to fetch product")
	}

	reviews, err := s.store.ListReviewsByProduct(ctx, product.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reviews")
	}
	return reviews, nil
}

func (s *reviewService) VerifyReview(ctx context.Context, id string) (repository.Review, error) {
	const op = "review.verify"

	var review repository.Review
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		review, err = q.MarkReviewVerified(ctx, id)
		if err != nil {
			return err
		}
		return recomputeRating(ctx, q, review.ProductID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Review{}, domain.NotFound(op, "Review", id)
		}
		return repository.Review{}, domain.Internal(err, op, "failed to verify review")
	}
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, id string) error {
	const op = "review.delete"

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		deleted, err := q.DeleteReview(ctx, id)
		if err != nil {
			return err
		}
		return recomputeRating(ctx, q, deleted.ProductID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound(op, "Review", id)
		}
		return domain.Internal(err, op, "failed to delete review")
	}
	return nil
}

// recomputeRating writes the review average back onto the product, rounded to
// one decimal place. Zero reviews resets the rating to zero.
func recomputeRating(ctx context.Context, q repository.Querier, productID string) error {
	stats, err := q.GetProductRatingStats(ctx, productID)
	if err != nil {
		return err
	}
	rating := math.Round(stats.Average*10) / 10
	return q.UpdateProductRating(ctx, repository.UpdateProductRatingParams{
		ProductID: productID,
		Rating:    rating,
	})
}

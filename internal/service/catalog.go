package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/repository"
)

// CatalogService exposes the read side of the product catalog. Products are
// addressed by SKU everywhere outside this package.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]repository.Product, error)
	GetProduct(ctx context.Context, sku string) (repository.Product, error)
}

type catalogService struct {
	store  repository.Store
	logger zerolog.Logger
}

func NewCatalogService(store repository.Store, logger zerolog.Logger) CatalogService {
	return &catalogService{
		store:  store,
		logger: logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]repository.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to list products")
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, sku string) (repository.Product, error) {
	const op = "catalog.get"

	if sku == "" {
		return repository.Product{}, domain.Invalid(op, "SKU is required")
	}

	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Product{}, errProductNotFound(op, sku)
		}
		return repository.Product{}, domain.Internal(err, op, "failed to fetch product")
	}
	return product, nil
}

package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/repository"
)

// CartLine is one cart row joined with live product data and priced with the
// effective (discounted) unit price.
type CartLine struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int32  `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
	Stock          int32  `json:"stock"`
	ImageURL       string `json:"image_url"`
}

// Cart is the computed view of a user's cart.
type Cart struct {
	Items         []CartLine `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	ItemCount     int32      `json:"item_count"`
}

// CartService manages per-user carts. Carts are keyed by an opaque user id
// (session id for guests) and product rows are unique per (user, product), so
// repeat adds merge instead of duplicating lines. Stock is not checked here;
// checkout's guarded decrement is the only stock gate, so a cart may hold
// more units than are currently in stock.
type CartService interface {
	GetCart(ctx context.Context, userID string) (Cart, error)
	AddItem(ctx context.Context, userID, sku string, quantity int32) (Cart, error)
	UpdateItem(ctx context.Context, userID, sku string, quantity int32) (Cart, error)
	RemoveItem(ctx context.Context, userID, sku string) (Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type cartService struct {
	store  repository.Store
	logger zerolog.Logger
}

func NewCartService(store repository.Store, logger zerolog.Logger) CartService {
	return &cartService{
		store:  store,
		logger: logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (Cart, error) {
	const op = "cart.get"

	if userID == "" {
		return Cart{}, domain.Invalid(op, "User id is required")
	}

	rows, err := s.store.GetCartItems(ctx, userID)
	if err != nil {
		return Cart{}, domain.Internal(err, op, "failed to load cart")
	}
	return buildCart(rows), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, sku string, quantity int32) (Cart, error) {
	const op = "cart.add"

	if userID == "" {
		return Cart{}, domain.Invalid(op, "User id is required")
	}
	if quantity <= 0 {
		return Cart{}, errInvalidQuantity(op)
	}

	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, errProductNotFound(op, sku)
		}
		return Cart{}, domain.Internal(err, op, "failed to fetch product")
	}

	if _, err := s.store.UpsertCartItem(ctx, repository.UpsertCartItemParams{
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  quantity,
	}); err != nil {
		return Cart{}, domain.Internal(err, op, "failed to add cart item")
	}

	s.logger.Debug().Str("user_id", userID).Str("sku", sku).Int32("quantity", quantity).
		Msg("cart item added")

	return s.GetCart(ctx, userID)
}

// UpdateItem replaces a line's quantity. Zero or negative removes the line,
// matching what a quantity stepper in the UI does.
func (s *cartService) UpdateItem(ctx context.Context, userID, sku string, quantity int32) (Cart, error) {
	const op = "cart.update"

	if userID == "" {
		return Cart{}, domain.Invalid(op, "User id is required")
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, sku)
	}

	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, errProductNotFound(op, sku)
		}
		return Cart{}, domain.Internal(err, op, "failed to fetch product")
	}

	if _, err := s.store.SetCartItemQuantity(ctx, repository.SetCartItemQuantityParams{
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  quantity,
	}); err != nil {
		return Cart{}, domain.Internal(err, op, "failed to update cart item")
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, sku string) (Cart, error) {
	const op = "cart.remove"

	if userID == "" {
		return Cart{}, domain.Invalid(op, "User id is required")
	}

	product, err := s.store.GetProductBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, errProductNotFound(op, sku)
		}
		return Cart{}, domain.Internal(err, op, "failed to fetch product")
	}

	if err := s.store.DeleteCartItem(ctx, repository.DeleteCartItemParams{
		UserID:    userID,
		ProductID: product.ID,
	}); err != nil {
		return Cart{}, domain.Internal(err, op, "failed to remove cart item")
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	const op = "cart.clear"

	if userID == "" {
		return domain.Invalid(op, "User id is required")
	}
	if err := s.store.ClearCart(ctx, userID); err != nil {
		return domain.Internal(err, op, "failed to clear cart")
	}
	return nil
}

func buildCart(rows []repository.CartItemDetail) Cart {
	cart := Cart{Items: make([]CartLine, 0, len(rows))}
	for _, row := range rows {
		unit := row.PriceCents
		if row.DiscountPriceCents > 0 {
			unit = row.DiscountPriceCents
		}
		line := CartLine{
			ProductID:      row.ProductID,
			SKU:            row.SKU,
			Name:           row.Name,
			UnitPriceCents: unit,
			Quantity:       row.Quantity,
			LineTotalCents: unit * int64(row.Quantity),
			Stock:          row.Stock,
			ImageURL:       row.ImageURL,
		}
		cart.Items = append(cart.Items, line)
		cart.SubtotalCents += line.LineTotalCents
		cart.ItemCount += row.Quantity
	}
	return cart
}

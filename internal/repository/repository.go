package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx behavior shared by *pgxpool.Pool and pgx.Tx.
// Queries runs against either, which is what lets ExecTx reuse every query
// inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries holds all database access methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to a pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Querier is the query interface implemented by *Queries.
// Services depend on this so tests can substitute an in-memory fake.
type Querier interface {
	// Products
	ListProducts(ctx context.Context) ([]Product, error)
	GetProductBySKU(ctx context.Context, sku string) (Product, error)
	DecrementProductStock(ctx context.Context, arg DecrementProductStockParams) (int64, error)
	IncrementProductStock(ctx context.Context, arg IncrementProductStockParams) error
	UpdateProductRating(ctx context.Context, arg UpdateProductRatingParams) error

	// Cart
	GetCartItems(ctx context.Context, userID string) ([]CartItemDetail, error)
	UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error)
	SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) (CartItem, error)
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error
	ClearCart(ctx context.Context, userID string) error

	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	GetOrderByID(ctx context.Context, id string) (Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)
	MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (int64, error)
	MarkOrderFailed(ctx context.Context, id string) (int64, error)
	ConfirmOrderCOD(ctx context.Context, id string) (int64, error)

	// Payment attempts
	CreatePaymentAttempt(ctx context.Context, arg CreatePaymentAttemptParams) (PaymentAttempt, error)
	GetPaymentAttemptByCorrelation(ctx context.Context, arg GetPaymentAttemptByCorrelationParams) (PaymentAttempt, error)
	SettlePaymentAttempt(ctx context.Context, arg SettlePaymentAttemptParams) (int64, error)

	// Reviews
	CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error)
	ListReviewsByProduct(ctx context.Context, productID string) ([]Review, error)
	GetReviewByID(ctx context.Context, id string) (Review, error)
	MarkReviewVerified(ctx context.Context, id string) (Review, error)
	DeleteReview(ctx context.Context, id string) (Review, error)
	GetProductRatingStats(ctx context.Context, productID string) (RatingStats, error)
}

var _ Querier = (*Queries)(nil)

// Store is the full storage interface handed to services: all queries plus a
// transaction boundary for multi-statement operations (checkout, settlement).
type Store interface {
	Querier

	// ExecTx runs fn inside a single database transaction. If fn returns an
	// error the transaction is rolled back and nothing is applied.
	ExecTx(ctx context.Context, fn func(Querier) error) error
}

// SQLStore implements Store on a pgx connection pool.
type SQLStore struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{
		Queries: New(pool),
		pool:    pool,
	}
}

// ExecTx runs fn within a database transaction.
func (s *SQLStore) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

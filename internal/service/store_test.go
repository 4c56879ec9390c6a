package service_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dokanlabs/dokan/internal/repository"
)

// fakeState is the in-memory database shared by the service tests.
type fakeState struct {
	products   map[string]repository.Product // by id
	cart       map[string]repository.CartItem
	orders     map[string]repository.Order
	orderItems map[string][]repository.OrderItem
	attempts   map[string]repository.PaymentAttempt
	reviews    map[string]repository.Review
	seq        int64
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		products:   make(map[string]repository.Product, len(s.products)),
		cart:       make(map[string]repository.CartItem, len(s.cart)),
		orders:     make(map[string]repository.Order, len(s.orders)),
		orderItems: make(map[string][]repository.OrderItem, len(s.orderItems)),
		attempts:   make(map[string]repository.PaymentAttempt, len(s.attempts)),
		reviews:    make(map[string]repository.Review, len(s.reviews)),
		seq:        s.seq,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]repository.OrderItem(nil), v...)
	}
	for k, v := range s.attempts {
		c.attempts[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

func (s *fakeState) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeState) now() time.Time {
	s.seq++
	return time.Unix(1700000000, 0).Add(time.Duration(s.seq) * time.Second)
}

// fakeQuerier implements repository.Querier against fakeState.
type fakeQuerier struct {
	st *fakeState
}

// fakeStore implements repository.Store. ExecTx snapshots the state and
// restores it when fn fails, mirroring a rolled-back transaction.
type fakeStore struct {
	*fakeQuerier
}

func newFakeStore() *fakeStore {
	st := &fakeState{
		products:   make(map[string]repository.Product),
		cart:       make(map[string]repository.CartItem),
		orders:     make(map[string]repository.Order),
		orderItems: make(map[string][]repository.OrderItem),
		attempts:   make(map[string]repository.PaymentAttempt),
		reviews:    make(map[string]repository.Review),
	}
	return &fakeStore{fakeQuerier: &fakeQuerier{st: st}}
}

func (f *fakeStore) ExecTx(_ context.Context, fn func(repository.Querier) error) error {
	snap := f.st.clone()
	if err := fn(f.fakeQuerier); err != nil {
		*f.st = *snap
		return err
	}
	return nil
}

func (f *fakeStore) addProduct(p repository.Product) repository.Product {
	if p.ID == "" {
		p.ID = f.st.nextID("prod")
	}
	p.CreatedAt = f.st.now()
	p.UpdatedAt = p.CreatedAt
	f.st.products[p.ID] = p
	return p
}

// Products

func (q *fakeQuerier) ListProducts(_ context.Context) ([]repository.Product, error) {
	out := make([]repository.Product, 0, len(q.st.products))
	for _, p := range q.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (q *fakeQuerier) GetProductBySKU(_ context.Context, sku string) (repository.Product, error) {
	for _, p := range q.st.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return repository.Product{}, pgx.ErrNoRows
}

func (q *fakeQuerier) DecrementProductStock(_ context.Context, arg repository.DecrementProductStockParams) (int64, error) {
	p, ok := q.st.products[arg.ProductID]
	if !ok || p.Stock < arg.Quantity {
		return 0, nil
	}
	p.Stock -= arg.Quantity
	q.st.products[arg.ProductID] = p
	return 1, nil
}

func (q *fakeQuerier) IncrementProductStock(_ context.Context, arg repository.IncrementProductStockParams) error {
	p, ok := q.st.products[arg.ProductID]
	if !ok {
		return nil
	}
	p.Stock += arg.Quantity
	q.st.products[arg.ProductID] = p
	return nil
}

func (q *fakeQuerier) UpdateProductRating(_ context.Context, arg repository.UpdateProductRatingParams) error {
	p, ok := q.st.products[arg.ProductID]
	if !ok {
		return nil
	}
	p.Rating = arg.Rating
	q.st.products[arg.ProductID] = p
	return nil
}

// Cart

func cartKey(userID, productID string) string { return userID + "|" + productID }

func (q *fakeQuerier) GetCartItems(_ context.Context, userID string) ([]repository.CartItemDetail, error) {
	var out []repository.CartItemDetail
	for _, item := range q.st.cart {
		if item.UserID != userID {
			continue
		}
		p := q.st.products[item.ProductID]
		imageURL := ""
		if len(p.ImageURLs) > 0 {
			imageURL = p.ImageURLs[0]
		}
		out = append(out, repository.CartItemDetail{
			CartItem:           item,
			SKU:                p.SKU,
			Name:               p.Name,
			PriceCents:         p.PriceCents,
			DiscountPriceCents: p.DiscountPriceCents,
			Stock:              p.Stock,
			ImageURL:           imageURL,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (q *fakeQuerier) UpsertCartItem(_ context.Context, arg repository.UpsertCartItemParams) (repository.CartItem, error) {
	key := cartKey(arg.UserID, arg.ProductID)
	if existing, ok := q.st.cart[key]; ok {
		existing.Quantity += arg.Quantity
		existing.UpdatedAt = q.st.now()
		q.st.cart[key] = existing
		return existing, nil
	}
	item := repository.CartItem{
		ID:        q.st.nextID("cart"),
		UserID:    arg.UserID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		CreatedAt: q.st.now(),
	}
	item.UpdatedAt = item.CreatedAt
	q.st.cart[key] = item
	return item, nil
}

func (q *fakeQuerier) SetCartItemQuantity(_ context.Context, arg repository.SetCartItemQuantityParams) (repository.CartItem, error) {
	key := cartKey(arg.UserID, arg.ProductID)
	if existing, ok := q.st.cart[key]; ok {
		existing.Quantity = arg.Quantity
		existing.UpdatedAt = q.st.now()
		q.st.cart[key] = existing
		return existing, nil
	}
	item := repository.CartItem{
		ID:        q.st.nextID("cart"),
		UserID:    arg.UserID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		CreatedAt: q.st.now(),
	}
	item.UpdatedAt = item.CreatedAt
	q.st.cart[key] = item
	return item, nil
}

func (q *fakeQuerier) DeleteCartItem(_ context.Context, arg repository.DeleteCartItemParams) error {
	delete(q.st.cart, cartKey(arg.UserID, arg.ProductID))
	return nil
}

func (q *fakeQuerier) ClearCart(_ context.Context, userID string) error {
	for key, item := range q.st.cart {
		if item.UserID == userID {
			delete(q.st.cart, key)
		}
	}
	return nil
}

// Orders

func (q *fakeQuerier) CreateOrder(_ context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	order := repository.Order{
		ID:               q.st.nextID("order"),
		OrderNumber:      arg.OrderNumber,
		UserID:           arg.UserID,
		Status:           arg.Status,
		PaymentStatus:    arg.PaymentStatus,
		PaymentMethod:    arg.PaymentMethod,
		SubtotalCents:    arg.SubtotalCents,
		TotalCents:       arg.TotalCents,
		ShippingName:     arg.ShippingName,
		ShippingPhone:    arg.ShippingPhone,
		ShippingAddress:  arg.ShippingAddress,
		ShippingCity:     arg.ShippingCity,
		ShippingPostcode: arg.ShippingPostcode,
		CreatedAt:        q.st.now(),
	}
	order.UpdatedAt = order.CreatedAt
	q.st.orders[order.ID] = order
	return order, nil
}

func (q *fakeQuerier) CreateOrderItem(_ context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
	item := repository.OrderItem{
		ID:             q.st.nextID("line"),
		OrderID:        arg.OrderID,
		ProductID:      arg.ProductID,
		SKU:            arg.SKU,
		Name:           arg.Name,
		UnitPriceCents: arg.UnitPriceCents,
		Quantity:       arg.Quantity,
		ImageURL:       arg.ImageURL,
	}
	q.st.orderItems[arg.OrderID] = append(q.st.orderItems[arg.OrderID], item)
	return item, nil
}

func (q *fakeQuerier) GetOrderByID(_ context.Context, id string) (repository.Order, error) {
	order, ok := q.st.orders[id]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return order, nil
}

func (q *fakeQuerier) GetOrderItems(_ context.Context, orderID string) ([]repository.OrderItem, error) {
	return append([]repository.OrderItem(nil), q.st.orderItems[orderID]...), nil
}

func (q *fakeQuerier) ListOrdersByUser(_ context.Context, userID string) ([]repository.Order, error) {
	var out []repository.Order
	for _, o := range q.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (q *fakeQuerier) MarkOrderPaid(_ context.Context, arg repository.MarkOrderPaidParams) (int64, error) {
	order, ok := q.st.orders[arg.ID]
	if !ok || order.PaymentStatus != "pending" {
		return 0, nil
	}
	order.Status = "paid"
	order.PaymentStatus = "paid"
	order.PaymentMethod = arg.PaymentMethod
	order.UpdatedAt = q.st.now()
	q.st.orders[arg.ID] = order
	return 1, nil
}

func (q *fakeQuerier) MarkOrderFailed(_ context.Context, id string) (int64, error) {
	order, ok := q.st.orders[id]
	if !ok || order.PaymentStatus != "pending" {
		return 0, nil
	}
	order.Status = "failed"
	order.PaymentStatus = "failed"
	order.UpdatedAt = q.st.now()
	q.st.orders[id] = order
	return 1, nil
}

func (q *fakeQuerier) ConfirmOrderCOD(_ context.Context, id string) (int64, error) {
	order, ok := q.st.orders[id]
	if !ok || order.Status != "pending" {
		return 0, nil
	}
	order.Status = "confirmed"
	order.PaymentMethod = "cod"
	order.UpdatedAt = q.st.now()
	q.st.orders[id] = order
	return 1, nil
}

// Payment attempts

func (q *fakeQuerier) CreatePaymentAttempt(_ context.Context, arg repository.CreatePaymentAttemptParams) (repository.PaymentAttempt, error) {
	attempt := repository.PaymentAttempt{
		ID:            q.st.nextID("attempt"),
		OrderID:       arg.OrderID,
		Gateway:       arg.Gateway,
		CorrelationID: arg.CorrelationID,
		AmountCents:   arg.AmountCents,
		Status:        "pending",
		CreatedAt:     q.st.now(),
	}
	attempt.UpdatedAt = attempt.CreatedAt
	q.st.attempts[attempt.ID] = attempt
	return attempt, nil
}

func (q *fakeQuerier) GetPaymentAttemptByCorrelation(_ context.Context, arg repository.GetPaymentAttemptByCorrelationParams) (repository.PaymentAttempt, error) {
	for _, a := range q.st.attempts {
		if a.Gateway == arg.Gateway && a.CorrelationID == arg.CorrelationID {
			return a, nil
		}
	}
	return repository.PaymentAttempt{}, pgx.ErrNoRows
}

func (q *fakeQuerier) SettlePaymentAttempt(_ context.Context, arg repository.SettlePaymentAttemptParams) (int64, error) {
	attempt, ok := q.st.attempts[arg.ID]
	if !ok || attempt.Status != "pending" {
		return 0, nil
	}
	attempt.Status = arg.Status
	attempt.UpdatedAt = q.st.now()
	q.st.attempts[arg.ID] = attempt
	return 1, nil
}

// Reviews

func (q *fakeQuerier) CreateReview(_ context.Context, arg repository.CreateReviewParams) (repository.Review, error) {
	review := repository.Review{
		ID:        q.st.nextID("review"),
		ProductID: arg.ProductID,
		Name:      arg.Name,
		Email:     arg.Email,
		Rating:    arg.Rating,
		Title:     arg.Title,
		Comment:   arg.Comment,
		CreatedAt: q.st.now(),
	}
	q.st.reviews[review.ID] = review
	return review, nil
}

func (q *fakeQuerier) ListReviewsByProduct(_ context.Context, productID string) ([]repository.Review, error) {
	var out []repository.Review
	for _, r := range q.st.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (q *fakeQuerier) GetReviewByID(_ context.Context, id string) (repository.Review, error) {
	review, ok := q.st.reviews[id]
	if !ok {
		return repository.Review{}, pgx.ErrNoRows
	}
	return review, nil
}

func (q *fakeQuerier) MarkReviewVerified(_ context.Context, id string) (repository.Review, error) {
	review, ok := q.st.reviews[id]
	if !ok {
		return repository.Review{}, pgx.ErrNoRows
	}
	review.Verified = true
	q.st.reviews[id] = review
	return review, nil
}

func (q *fakeQuerier) DeleteReview(_ context.Context, id string) (repository.Review, error) {
	review, ok := q.st.reviews[id]
	if !ok {
		return repository.Review{}, pgx.ErrNoRows
	}
	delete(q.st.reviews, id)
	return review, nil
}

func (q *fakeQuerier) GetProductRatingStats(_ context.Context, productID string) (repository.RatingStats, error) {
	var stats repository.RatingStats
	var sum int64
	for _, r := range q.st.reviews {
		if r.ProductID == productID {
			stats.Count++
			sum += int64(r.Rating)
		}
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

var _ repository.Store = (*fakeStore)(nil)

package service

import (
	"github.com/dokanlabs/dokan/internal/domain"
)

// Shared error constructors. Services return domain errors so the HTTP layer
// can map codes to status without inspecting messages.

func errProductNotFound(op, sku string) error {
	return domain.NotFound(op, "Product", sku)
}

func errOrderNotFound(op, id string) error {
	return domain.NotFound(op, "Order", id)
}

func errInvalidQuantity(op string) error {
	return domain.Invalid(op, "Quantity must be at least 1")
}

func errInsufficientStock(op, sku string) error {
	return domain.Errorf(domain.ECONFLICT, op, "Insufficient stock for product '%s'", sku)
}

func errEmptyCheckout(op string) error {
	return domain.Invalid(op, "Checkout requires at least one item")
}

func errOrderNotPending(op, id string) error {
	return domain.Errorf(domain.ECONFLICT, op, "Order '%s' is no longer pending", id)
}

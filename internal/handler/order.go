package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/service"
)

type orderHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
}

func newOrderHandler(checkout service.CheckoutService, orders service.OrderService) *orderHandler {
	return &orderHandler{checkout: checkout, orders: orders}
}

type checkoutRequest struct {
	Items    []domain.CheckoutItem  `json:"items"`
	Customer domain.Customer        `json:"customer"`
	Shipping domain.ShippingAddress `json:"shipping"`
}

type confirmCODRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

func (h *orderHandler) Create(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	detail, err := h.checkout.CreateOrder(c.Request().Context(), service.CheckoutInput{
		UserID:   uid,
		Items:    req.Items,
		Customer: req.Customer,
		Shipping: req.Shipping,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *orderHandler) Get(c echo.Context) error {
	id, err := parseID("order", c.Param("id"))
	if err != nil {
		return err
	}
	detail, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *orderHandler) List(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListOrders(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": orders})
}

func (h *orderHandler) ConfirmCOD(c echo.Context) error {
	var req confirmCODRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	orderID, err := parseID("order", req.OrderID)
	if err != nil {
		return err
	}

	detail, err := h.orders.ConfirmCOD(c.Request().Context(), orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

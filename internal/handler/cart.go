package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dokanlabs/dokan/internal/service"
)

type cartHandler struct {
	cart service.CartService
}

func newCartHandler(cart service.CartService) *cartHandler {
	return &cartHandler{cart: cart}
}

type addCartItemRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int32  `json:"quantity" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *cartHandler) Get(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	cart, err := h.cart.GetCart(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *cartHandler) AddItem(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cart, err := h.cart.AddItem(c.Request().Context(), uid, req.SKU, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *cartHandler) UpdateItem(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	cart, err := h.cart.UpdateItem(c.Request().Context(), uid, c.Param("sku"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *cartHandler) RemoveItem(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	cart, err := h.cart.RemoveItem(c.Request().Context(), uid, c.Param("sku"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *cartHandler) Clear(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.cart.ClearCart(c.Request().Context(), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

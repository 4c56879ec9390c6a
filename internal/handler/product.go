package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dokanlabs/dokan/internal/service"
)

type productHandler struct {
	catalog service.CatalogService
	reviews service.ReviewService
}

func newProductHandler(catalog service.CatalogService, reviews service.ReviewService) *productHandler {
	return &productHandler{catalog: catalog, reviews: reviews}
}

func (h *productHandler) List(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"products": products})
}

func (h *productHandler) Get(c echo.Context) error {
	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *productHandler) ListReviews(c echo.Context) error {
	reviews, err := h.reviews.ListReviews(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"reviews": reviews})
}

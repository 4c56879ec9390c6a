package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dokanlabs/dokan/internal/service"
)

type reviewHandler struct {
	reviews service.ReviewService
}

func newReviewHandler(reviews service.ReviewService) *reviewHandler {
	return &reviewHandler{reviews: reviews}
}

type createReviewRequest struct {
	SKU     string `json:"sku" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Rating  int32  `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title"`
	Comment string `json:"comment" validate:"required"`
}

func (h *reviewHandler) Create(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.reviews.CreateReview(c.Request().Context(), service.ReviewInput{
		SKU:     req.SKU,
		Name:    req.Name,
		Email:   req.Email,
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *reviewHandler) Verify(c echo.Context) error {
	id, err := parseID("review", c.Param("id"))
	if err != nil {
		return err
	}
	review, err := h.reviews.VerifyReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, review)
}

func (h *reviewHandler) Delete(c echo.Context) error {
	id, err := parseID("review", c.Param("id"))
	if err != nil {
		return err
	}
	if err := h.reviews.DeleteReview(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

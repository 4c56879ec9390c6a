package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/dokanlabs/dokan/internal/payment"
	"github.com/dokanlabs/dokan/internal/service"
)

type paymentHandler struct {
	payments   service.PaymentService
	successURL string
	failureURL string
}

func newPaymentHandler(payments service.PaymentService, successURL, failureURL string) *paymentHandler {
	if successURL == "" {
		successURL = "/checkout/success"
	}
	if failureURL == "" {
		failureURL = "/checkout/failure"
	}
	return &paymentHandler{payments: payments, successURL: successURL, failureURL: failureURL}
}

type initiatePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

func (h *paymentHandler) Initiate(c echo.Context) error {
	var req initiatePaymentRequest
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

	session, err := h.payments.InitiatePayment(c.Request().Context(), orderID, c.Param("gateway"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// Callback serves both redirect (GET query) and IPN (POST form) callbacks.
// Parameters from both sources are merged into one set before reconciliation.
// The browser variant is sent on to the storefront's result page; the IPN
// variant gets the JSON outcome so gateways see 200 and stop retrying.
func (h *paymentHandler) Callback(c echo.Context) error {
	params := url.Values{}
	for key, values := range c.QueryParams() {
		params[key] = values
	}
	if form, err := c.FormParams(); err == nil {
		for key, values := range form {
			params[key] = values
		}
	}

	outcome, err := h.payments.HandleCallback(c.Request().Context(), c.Param("gateway"), params)
	if err != nil {
		return err
	}
	if c.Request().Method == http.MethodGet {
		return c.Redirect(http.StatusSeeOther, h.resultPage(outcome))
	}
	return c.JSON(http.StatusOK, outcome)
}

func (h *paymentHandler) resultPage(outcome *service.CallbackOutcome) string {
	q := url.Values{"order_id": {outcome.OrderID}}
	if outcome.Status == payment.StatusSuccess {
		return h.successURL + "?" + q.Encode()
	}
	q.Set("status", string(outcome.Status))
	return h.failureURL + "?" + q.Encode()
}

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RocketConfig carries the Rocket merchant API credentials.
type RocketConfig struct {
	MerchantID  string
	APIKey      string
	APISecret   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

// RocketGateway speaks Rocket's JSON API. Requests carry an HMAC-SHA256
// signature header; callbacks carry the same scheme over the transaction id
// and status.
type RocketGateway struct {
	cfg    RocketConfig
	client *http.Client
}

func NewRocketGateway(cfg RocketConfig) (*RocketGateway, error) {
	if cfg.MerchantID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: rocket", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("payment: rocket base URL is required")
	}
	return &RocketGateway{cfg: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

func (g *RocketGateway) Name() string { return "rocket" }

type rocketCreateRequest struct {
	MerchantID  string `json:"merchantId"`
	Invoice     string `json:"invoice"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CallbackURL string `json:"callbackUrl"`
	Timestamp   string `json:"timestamp"`
}

type rocketCreateResponse struct {
	TransactionID string `json:"transactionId"`
	PaymentURL    string `json:"paymentUrl"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// CreateSession opens a Rocket payment. The signature covers the merchant id,
// invoice, amount, and timestamp so a replayed request with a changed amount
// is rejected upstream.
func (g *RocketGateway) CreateSession(ctx context.Context, reqData Request) (*Session, error) {
	amount := formatAmount(reqData.AmountCents)
	ts := fmt.Sprintf("%d", time.Now().Unix())

	body, err := json.Marshal(rocketCreateRequest{
		MerchantID:  g.cfg.MerchantID,
		Invoice:     reqData.OrderNumber,
		Amount:      amount,
		Currency:    reqData.Currency,
		CallbackURL: g.cfg.CallbackURL,
		Timestamp:   ts,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Rocket-Key", g.cfg.APIKey)
	req.Header.Set("X-Rocket-Signature",
		signHMAC(g.cfg.APISecret, g.cfg.MerchantID, reqData.OrderNumber, amount, ts))

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, gatewayErr("rocket", "create payment", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gatewayErr("rocket", "create payment", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, gatewayErr("rocket", "create payment",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw))
	}

	var out rocketCreateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gatewayErr("rocket", "create payment", err)
	}
	if out.TransactionID == "" || out.PaymentURL == "" {
		return nil, gatewayErr("rocket", "create payment",
			fmt.Errorf("incomplete response (status %s %s)", out.Status, out.Message))
	}

	return &Session{CorrelationID: out.TransactionID, PaymentURL: out.PaymentURL}, nil
}

// VerifyCallback recomputes the HMAC over the transaction id and status.
func (g *RocketGateway) VerifyCallback(_ context.Context, params url.Values) error {
	txID := params.Get("transaction_id")
	status := params.Get("status")
	sig := params.Get("signature")
	if txID == "" || sig == "" {
		return ErrInvalidSignature
	}

	expected := signHMAC(g.cfg.APISecret, txID, status)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseCallback maps Rocket's COMPLETED, FAILED, and CANCELLED statuses.
func (g *RocketGateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	txID := params.Get("transaction_id")
	if txID == "" {
		return nil, fmt.Errorf("payment: rocket callback missing transaction_id")
	}

	raw := params.Get("status")
	result := &CallbackResult{CorrelationID: txID, RawStatus: raw}
	switch raw {
	case "COMPLETED":
		result.Status = StatusSuccess
	case "CANCELLED":
		result.Status = StatusCancelled
	default:
		result.Status = StatusFailed
	}
	return result, nil
}

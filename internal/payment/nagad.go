package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// NagadConfig carries the merchant credentials for Nagad checkout.
type NagadConfig struct {
	MerchantID  string
	MerchantKey string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

// NagadGateway initializes a checkout session with a signed JSON request and
// verifies callbacks by recomputing the HMAC over the reference id and status.
type NagadGateway struct {
	cfg    NagadConfig
	client *http.Client
}

func NewNagadGateway(cfg NagadConfig) (*NagadGateway, error) {
	if cfg.MerchantID == "" || cfg.MerchantKey == "" {
		return nil, fmt.Errorf("%w: nagad", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("payment: nagad base URL is required")
	}
	return &NagadGateway{cfg: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

func (g *NagadGateway) Name() string { return "nagad" }

type nagadInitRequest struct {
	MerchantID  string `json:"merchantId"`
	OrderID     string `json:"orderId"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	CallbackURL string `json:"callbackUrl"`
	DateTime    string `json:"dateTime"`
	Signature   string `json:"signature"`
}

type nagadInitResponse struct {
	PaymentRefID string `json:"paymentRefId"`
	CallBackURL  string `json:"callBackUrl"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// CreateSession initializes a Nagad checkout. The request body is signed with
// the merchant key so Nagad can authenticate us without a prior token grant.
func (g *NagadGateway) CreateSession(ctx context.Context, reqData Request) (*Session, error) {
	amount := formatAmount(reqData.AmountCents)
	now := time.Now().Format("20060102150405")

	init := nagadInitRequest{
		MerchantID:  g.cfg.MerchantID,
		OrderID:     reqData.OrderNumber,
		Amount:      amount,
		Currency:    reqData.Currency,
		CallbackURL: g.cfg.CallbackURL,
		DateTime:    now,
		Signature: signHMAC(g.cfg.MerchantKey,
			g.cfg.MerchantID, reqData.OrderNumber, amount, now),
	}

	body, err := json.Marshal(init)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/dfs/check-out/initialize/%s/%s",
		g.cfg.BaseURL, g.cfg.MerchantID, reqData.OrderNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-KM-Api-Version", "v-0.2.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, gatewayErr("nagad", "initialize", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gatewayErr("nagad", "initialize", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, gatewayErr("nagad", "initialize",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw))
	}

	var out nagadInitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gatewayErr("nagad", "initialize", err)
	}
	if out.PaymentRefID == "" || out.CallBackURL == "" {
		return nil, gatewayErr("nagad", "initialize",
			fmt.Errorf("incomplete response (status %s %s)", out.Status, out.Message))
	}

	return &Session{CorrelationID: out.PaymentRefID, PaymentURL: out.CallBackURL}, nil
}

// VerifyCallback recomputes the HMAC Nagad attaches over the reference id and
// status. Constant-time comparison, a forged or tampered callback fails here.
func (g *NagadGateway) VerifyCallback(_ context.Context, params url.Values) error {
	refID := params.Get("payment_ref_id")
	status := params.Get("status")
	sig := params.Get("signature")
	if refID == "" || sig == "" {
		return ErrInvalidSignature
	}

	expected := signHMAC(g.cfg.MerchantKey, refID, status)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseCallback maps Nagad's Success, Failed, and Aborted statuses.
func (g *NagadGateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	refID := params.Get("payment_ref_id")
	if refID == "" {
		return nil, fmt.Errorf("payment: nagad callback missing payment_ref_id")
	}

	raw := params.Get("status")
	result := &CallbackResult{CorrelationID: refID, RawStatus: raw}
	switch raw {
	case "Success":
		result.Status = StatusSuccess
	case "Aborted":
		result.Status = StatusCancelled
	default:
		result.Status = StatusFailed
	}
	return result, nil
}

// signHMAC joins the fields with "|" and returns the hex HMAC-SHA256.
func signHMAC(key string, fields ...string) string {
	mac := hmac.New(sha256.New, []byte(key))
	for i, f := range fields {
		if i > 0 {
			mac.Write([]byte("|"))
		}
		mac.Write([]byte(f))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

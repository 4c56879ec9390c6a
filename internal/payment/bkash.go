package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// BkashConfig carries the tokenized-checkout credentials.
type BkashConfig struct {
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

// BkashGateway implements the bKash tokenized checkout flow: grant an id
// token, create a payment, redirect the customer to bkashURL. The redirect
// back carries no signature, so VerifyCallback confirms the paymentID against
// bKash's payment status API before any state is touched.
type BkashGateway struct {
	cfg    BkashConfig
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewBkashGateway validates credentials and builds the adapter.
func NewBkashGateway(cfg BkashConfig) (*BkashGateway, error) {
	if cfg.AppKey == "" || cfg.AppSecret == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: bkash", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("payment: bkash base URL is required")
	}
	return &BkashGateway{cfg: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

func (g *BkashGateway) Name() string { return "bkash" }

type bkashTokenResponse struct {
	IDToken    string `json:"id_token"`
	TokenType  string `json:"token_type"`
	ExpiresIn  int64  `json:"expires_in"`
	StatusCode string `json:"statusCode"`
	StatusMsg  string `json:"statusMessage"`
}

// grantToken fetches (or reuses) an id token. Tokens are valid for an hour;
// we refresh a minute early.
func (g *BkashGateway) grantToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_key":    g.cfg.AppKey,
		"app_secret": g.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/tokenized/checkout/token/grant", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", g.cfg.Username)
	req.Header.Set("password", g.cfg.Password)

	var tok bkashTokenResponse
	if err := g.do(req, &tok); err != nil {
		return "", gatewayErr("bkash", "token grant", err)
	}
	if tok.IDToken == "" {
		return "", gatewayErr("bkash", "token grant",
			fmt.Errorf("no token in response (status %s %s)", tok.StatusCode, tok.StatusMsg))
	}

	g.token = tok.IDToken
	expires := time.Duration(tok.ExpiresIn) * time.Second
	if expires <= 0 {
		expires = time.Hour
	}
	g.tokenExpiry = time.Now().Add(expires - time.Minute)
	return g.token, nil
}

type bkashCreateResponse struct {
	PaymentID  string `json:"paymentID"`
	BkashURL   string `json:"bkashURL"`
	StatusCode string `json:"statusCode"`
	StatusMsg  string `json:"statusMessage"`
}

// CreateSession opens a tokenized checkout payment.
func (g *BkashGateway) CreateSession(ctx context.Context, reqData Request) (*Session, error) {
	token, err := g.grantToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"mode":                  "0011",
		"payerReference":        reqData.Customer.Phone,
		"callbackURL":           g.cfg.CallbackURL,
		"amount":                formatAmount(reqData.AmountCents),
		"currency":              reqData.Currency,
		"intent":                "sale",
		"merchantInvoiceNumber": reqData.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/tokenized/checkout/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", g.cfg.AppKey)

	var created bkashCreateResponse
	if err := g.do(req, &created); err != nil {
		return nil, gatewayErr("bkash", "create payment", err)
	}
	if created.PaymentID == "" || created.BkashURL == "" {
		return nil, gatewayErr("bkash", "create payment",
			fmt.Errorf("incomplete response (status %s %s)", created.StatusCode, created.StatusMsg))
	}

	return &Session{CorrelationID: created.PaymentID, PaymentURL: created.BkashURL}, nil
}

type bkashStatusResponse struct {
	PaymentID         string `json:"paymentID"`
	TransactionStatus string `json:"transactionStatus"`
	StatusCode        string `json:"statusCode"`
}

// VerifyCallback confirms the claimed paymentID with bKash directly. The
// browser redirect is unauthenticated, so trusting its parameters without
// this round-trip would let anyone mark orders paid.
func (g *BkashGateway) VerifyCallback(ctx context.Context, params url.Values) error {
	paymentID := params.Get("paymentID")
	if paymentID == "" {
		return ErrInvalidSignature
	}

	token, err := g.grantToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"paymentID": paymentID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/tokenized/checkout/payment/status", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", g.cfg.AppKey)

	var status bkashStatusResponse
	if err := g.do(req, &status); err != nil {
		return gatewayErr("bkash", "payment status", err)
	}
	if status.PaymentID != paymentID {
		return ErrInvalidSignature
	}

	// The redirect's status claim must agree with what bKash reports.
	if params.Get("status") == "success" && !strings.EqualFold(status.TransactionStatus, "Completed") {
		return ErrInvalidSignature
	}
	return nil
}

// ParseCallback maps the redirect parameters to a normalized result. bKash
// reports status as success, failure, or cancel.
func (g *BkashGateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	paymentID := params.Get("paymentID")
	if paymentID == "" {
		return nil, fmt.Errorf("payment: bkash callback missing paymentID")
	}

	raw := params.Get("status")
	result := &CallbackResult{CorrelationID: paymentID, RawStatus: raw}
	switch raw {
	case "success":
		result.Status = StatusSuccess
	case "cancel":
		result.Status = StatusCancelled
	default:
		result.Status = StatusFailed
	}
	return result, nil
}

func (g *BkashGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

// formatAmount renders cents as the "12.50" decimal string the gateways want.
func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

package payment

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SSLCommerzConfig carries the store credentials and redirect URLs.
type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	BaseURL       string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
	Timeout       time.Duration
}

// SSLCommerzGateway opens hosted sessions with a form POST and authenticates
// IPN callbacks with the verify_sign MD5 scheme. Unlike the wallet gateways
// we mint the transaction id ourselves and SSLCommerz echoes it back.
type SSLCommerzGateway struct {
	cfg    SSLCommerzConfig
	client *http.Client
}

func NewSSLCommerzGateway(cfg SSLCommerzConfig) (*SSLCommerzGateway, error) {
	if cfg.StoreID == "" || cfg.StorePassword == "" {
		return nil, fmt.Errorf("%w: sslcommerz", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("payment: sslcommerz base URL is required")
	}
	return &SSLCommerzGateway{cfg: cfg, client: newHTTPClient(cfg.Timeout)}, nil
}

func (g *SSLCommerzGateway) Name() string { return "sslcommerz" }

type sslcommerzSessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// CreateSession posts the v4 session form and returns the hosted page URL.
func (g *SSLCommerzGateway) CreateSession(ctx context.Context, reqData Request) (*Session, error) {
	tranID := reqData.OrderNumber + "-" + uuid.NewString()[:8]

	form := url.Values{}
	form.Set("store_id", g.cfg.StoreID)
	form.Set("store_passwd", g.cfg.StorePassword)
	form.Set("total_amount", formatAmount(reqData.AmountCents))
	form.Set("currency", reqData.Currency)
	form.Set("tran_id", tranID)
	form.Set("success_url", g.cfg.SuccessURL)
	form.Set("fail_url", g.cfg.FailURL)
	form.Set("cancel_url", g.cfg.CancelURL)
	form.Set("ipn_url", g.cfg.IPNURL)
	form.Set("cus_name", reqData.Customer.Name)
	form.Set("cus_email", reqData.Customer.Email)
	form.Set("cus_phone", reqData.Customer.Phone)
	form.Set("cus_add1", "N/A")
	form.Set("cus_city", "N/A")
	form.Set("cus_country", "Bangladesh")
	form.Set("shipping_method", "NO")
	form.Set("product_name", reqData.OrderNumber)
	form.Set("product_category", "general")
	form.Set("product_profile", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/gwprocess/v4/api.php", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, gatewayErr("sslcommerz", "create session", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gatewayErr("sslcommerz", "create session", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, gatewayErr("sslcommerz", "create session",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw))
	}

	var out sslcommerzSessionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gatewayErr("sslcommerz", "create session", err)
	}
	if !strings.EqualFold(out.Status, "SUCCESS") || out.GatewayPageURL == "" {
		return nil, gatewayErr("sslcommerz", "create session",
			fmt.Errorf("session rejected: %s", out.FailedReason))
	}

	return &Session{CorrelationID: tranID, PaymentURL: out.GatewayPageURL}, nil
}

// VerifyCallback validates the IPN hash. SSLCommerz lists the hashed keys in
// verify_key; the hash is the MD5 of those key=value pairs plus the MD5 of the
// store password, sorted by key and joined with "&".
func (g *SSLCommerzGateway) VerifyCallback(_ context.Context, params url.Values) error {
	verifySign := params.Get("verify_sign")
	verifyKey := params.Get("verify_key")
	if verifySign == "" || verifyKey == "" {
		return ErrInvalidSignature
	}

	pairs := make(map[string]string)
	for _, key := range strings.Split(verifyKey, ",") {
		pairs[key] = params.Get(key)
	}
	pairs["store_passwd"] = md5Hex(g.cfg.StorePassword)

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(pairs[k])
	}

	expected := md5Hex(b.String())
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(verifySign))) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// ParseCallback maps the IPN status field. VALID and VALIDATED both mean the
// money moved.
func (g *SSLCommerzGateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	tranID := params.Get("tran_id")
	if tranID == "" {
		return nil, fmt.Errorf("payment: sslcommerz callback missing tran_id")
	}

	raw := params.Get("status")
	result := &CallbackResult{CorrelationID: tranID, RawStatus: raw}
	switch strings.ToUpper(raw) {
	case "VALID", "VALIDATED":
		result.Status = StatusSuccess
	case "CANCELLED":
		result.Status = StatusCancelled
	default:
		result.Status = StatusFailed
	}
	return result, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokanlabs/dokan/internal/domain"
)

func newSSLCommerzTestGateway(t *testing.T, baseURL string) *SSLCommerzGateway {
	t.Helper()
	gw, err := NewSSLCommerzGateway(SSLCommerzConfig{
		StoreID:       "teststore",
		StorePassword: "testpass",
		BaseURL:       baseURL,
		SuccessURL:    "https://shop.example.com/payments/sslcommerz/callback",
		FailURL:       "https://shop.example.com/payments/sslcommerz/callback",
		CancelURL:     "https://shop.example.com/payments/sslcommerz/callback",
		IPNURL:        "https://shop.example.com/payments/sslcommerz/callback",
	})
	require.NoError(t, err)
	return gw
}

// signIPN builds a valid verify_sign the way SSLCommerz does: the listed keys
// plus the MD5 of the store password, sorted, joined as a query string, MD5'd.
func signIPN(params url.Values, storePassword string) {
	keys := strings.Split(params.Get("verify_key"), ",")
	pairs := make(map[string]string, len(keys)+1)
	for _, k := range keys {
		pairs[k] = params.Get(k)
	}
	pairs["store_passwd"] = md5Hex(storePassword)

	sorted := make([]string, 0, len(pairs))
	for k := range pairs {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	parts := make([]string, 0, len(sorted))
	for _, k := range sorted {
		parts = append(parts, k+"="+pairs[k])
	}
	params.Set("verify_sign", md5Hex(strings.Join(parts, "&")))
}

func TestSSLCommerzCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/gwprocess/v4/api.php", r.URL.Path)
		assert.Equal(t, "teststore", r.FormValue("store_id"))
		assert.Equal(t, "testpass", r.FormValue("store_passwd"))
		assert.Equal(t, "49.98", r.FormValue("total_amount"))
		assert.Equal(t, "BDT", r.FormValue("currency"))
		assert.True(t, strings.HasPrefix(r.FormValue("tran_id"), "ORD-20260829-AAAA1111-"))

		w.Write([]byte(`{"status":"SUCCESS","sessionkey":"sess1","GatewayPageURL":"https://sandbox.sslcommerz.com/pay/sess1"}`))
	}))
	defer server.Close()

	gw := newSSLCommerzTestGateway(t, server.URL)
	session, err := gw.CreateSession(context.Background(), Request{
		OrderNumber: "ORD-20260829-AAAA1111",
		AmountCents: 4998,
		Currency:    "BDT",
		Customer:    domain.Customer{Name: "Ayesha", Email: "a@example.com", Phone: "+8801700000000"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.CorrelationID, "ORD-20260829-AAAA1111-"))
	assert.Equal(t, "https://sandbox.sslcommerz.com/pay/sess1", session.PaymentURL)
}

func TestSSLCommerzCreateSessionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"FAILED","failedreason":"store credentials invalid"}`))
	}))
	defer server.Close()

	gw := newSSLCommerzTestGateway(t, server.URL)
	_, err := gw.CreateSession(context.Background(), Request{OrderNumber: "ORD-X", AmountCents: 100, Currency: "BDT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store credentials invalid")
}

func TestSSLCommerzVerifyCallback(t *testing.T) {
	gw := newSSLCommerzTestGateway(t, "https://sandbox.sslcommerz.com")

	params := url.Values{
		"tran_id":    {"ORD-20260829-AAAA1111-deadbeef"},
		"status":     {"VALID"},
		"amount":     {"49.98"},
		"verify_key": {"amount,status,tran_id"},
	}
	signIPN(params, "testpass")
	assert.NoError(t, gw.VerifyCallback(context.Background(), params))

	t.Run("tampered amount", func(t *testing.T) {
		tampered := url.Values{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered.Set("amount", "1.00")
		assert.ErrorIs(t, gw.VerifyCallback(context.Background(), tampered), ErrInvalidSignature)
	})

	t.Run("wrong store password", func(t *testing.T) {
		forged := url.Values{
			"tran_id":    {"ORD-X-1"},
			"status":     {"VALID"},
			"verify_key": {"status,tran_id"},
		}
		signIPN(forged, "guessedpass")
		assert.ErrorIs(t, gw.VerifyCallback(context.Background(), forged), ErrInvalidSignature)
	})

	t.Run("missing verify fields", func(t *testing.T) {
		assert.ErrorIs(t, gw.VerifyCallback(context.Background(), url.Values{
			"tran_id": {"ORD-X-1"},
			"status":  {"VALID"},
		}), ErrInvalidSignature)
	})
}

func TestSSLCommerzParseCallback(t *testing.T) {
	gw := newSSLCommerzTestGateway(t, "https://sandbox.sslcommerz.com")

	cases := []struct {
		raw  string
		want Status
	}{
		{"VALID", StatusSuccess},
		{"VALIDATED", StatusSuccess},
		{"CANCELLED", StatusCancelled},
		{"FAILED", StatusFailed},
	}
	for _, tc := range cases {
		result, err := gw.ParseCallback(url.Values{
			"tran_id": {"ORD-X-1"},
			"status":  {tc.raw},
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Status, tc.raw)
	}
}

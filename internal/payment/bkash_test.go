package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokanlabs/dokan/internal/domain"
)

// bkashStub fakes the tokenized checkout endpoints.
type bkashStub struct {
	grantCalls  int
	createCalls int
	trxStatus   string
}

func (s *bkashStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tokenized/checkout/token/grant", func(w http.ResponseWriter, r *http.Request) {
		s.grantCalls++
		assert.Equal(t, "user", r.Header.Get("username"))
		assert.Equal(t, "pass", r.Header.Get("password"))
		json.NewEncoder(w).Encode(bkashTokenResponse{IDToken: "tok-1", ExpiresIn: 3600})
	})
	mux.HandleFunc("/tokenized/checkout/create", func(w http.ResponseWriter, r *http.Request) {
		s.createCalls++
		assert.Equal(t, "tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "appkey", r.Header.Get("X-App-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "49.98", body["amount"])
		assert.Equal(t, "sale", body["intent"])

		json.NewEncoder(w).Encode(bkashCreateResponse{
			PaymentID: "TR0011abc",
			BkashURL:  "https://sandbox.payment.bkash.com/redirect/TR0011abc",
		})
	})
	mux.HandleFunc("/tokenized/checkout/payment/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(bkashStatusResponse{
			PaymentID:         body["paymentID"],
			TransactionStatus: s.trxStatus,
		})
	})
	return mux
}

func newBkashTestGateway(t *testing.T, baseURL string) *BkashGateway {
	t.Helper()
	gw, err := NewBkashGateway(BkashConfig{
		AppKey:      "appkey",
		AppSecret:   "appsecret",
		Username:    "user",
		Password:    "pass",
		BaseURL:     baseURL,
		CallbackURL: "https://shop.example.com/payments/bkash/callback",
	})
	require.NoError(t, err)
	return gw
}

func TestBkashCreateSession(t *testing.T) {
	stub := &bkashStub{trxStatus: "Initiated"}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	gw := newBkashTestGateway(t, server.URL)
	session, err := gw.CreateSession(context.Background(), Request{
		OrderNumber: "ORD-20260829-AAAA1111",
		AmountCents: 4998,
		Currency:    "BDT",
		Customer:    domain.Customer{Phone: "+8801700000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "TR0011abc", session.CorrelationID)
	assert.Equal(t, "https://sandbox.payment.bkash.com/redirect/TR0011abc", session.PaymentURL)
	assert.Equal(t, 1, stub.grantCalls)
}

func TestBkashTokenIsReused(t *testing.T) {
	stub := &bkashStub{trxStatus: "Initiated"}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	gw := newBkashTestGateway(t, server.URL)
	for i := 0; i < 3; i++ {
		_, err := gw.CreateSession(context.Background(), Request{
			OrderNumber: "ORD-X",
			AmountCents: 4998,
			Currency:    "BDT",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stub.grantCalls, "token should be granted once and cached")
	assert.Equal(t, 3, stub.createCalls)
}

func TestBkashVerifyCallback(t *testing.T) {
	t.Run("confirmed payment passes", func(t *testing.T) {
		stub := &bkashStub{trxStatus: "Completed"}
		server := httptest.NewServer(stub.handler(t))
		defer server.Close()

		gw := newBkashTestGateway(t, server.URL)
		err := gw.VerifyCallback(context.Background(), url.Values{
			"paymentID": {"TR0011abc"},
			"status":    {"success"},
		})
		assert.NoError(t, err)
	})

	t.Run("success claim without completed payment fails", func(t *testing.T) {
		stub := &bkashStub{trxStatus: "Initiated"}
		server := httptest.NewServer(stub.handler(t))
		defer server.Close()

		gw := newBkashTestGateway(t, server.URL)
		err := gw.VerifyCallback(context.Background(), url.Values{
			"paymentID": {"TR0011abc"},
			"status":    {"success"},
		})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing paymentID", func(t *testing.T) {
		gw := newBkashTestGateway(t, "https://unused.example.com")
		err := gw.VerifyCallback(context.Background(), url.Values{"status": {"success"}})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestBkashParseCallback(t *testing.T) {
	gw := newBkashTestGateway(t, "https://unused.example.com")

	cases := []struct {
		raw  string
		want Status
	}{
		{"success", StatusSuccess},
		{"cancel", StatusCancelled},
		{"failure", StatusFailed},
	}
	for _, tc := range cases {
		result, err := gw.ParseCallback(url.Values{
			"paymentID": {"TR0011abc"},
			"status":    {tc.raw},
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Status, tc.raw)
		assert.Equal(t, "TR0011abc", result.CorrelationID)
	}

	_, err := gw.ParseCallback(url.Values{"status": {"success"}})
	assert.Error(t, err)
}

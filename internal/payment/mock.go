package payment

import (
	"context"
	"net/url"
	"sync"
)

// MockGateway is a test double. Each method delegates to the matching func
// field when set and falls back to a permissive default otherwise. Calls are
// recorded so tests can assert on what the service sent.
type MockGateway struct {
	GatewayName string

	CreateSessionFunc  func(ctx context.Context, req Request) (*Session, error)
	VerifyCallbackFunc func(ctx context.Context, params url.Values) error
	ParseCallbackFunc  func(params url.Values) (*CallbackResult, error)

	mu           sync.Mutex
	SessionCalls []Request
	VerifyCalls  []url.Values
	ParseCalls   []url.Values
}

func NewMockGateway(name string) *MockGateway {
	return &MockGateway{GatewayName: name}
}

func (m *MockGateway) Name() string {
	if m.GatewayName == "" {
		return "mock"
	}
	return m.GatewayName
}

func (m *MockGateway) CreateSession(ctx context.Context, req Request) (*Session, error) {
	m.mu.Lock()
	m.SessionCalls = append(m.SessionCalls, req)
	m.mu.Unlock()

	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &Session{
		CorrelationID: "mock-" + req.OrderNumber,
		PaymentURL:    "https://pay.example.com/" + req.OrderNumber,
	}, nil
}

func (m *MockGateway) VerifyCallback(ctx context.Context, params url.Values) error {
	m.mu.Lock()
	m.VerifyCalls = append(m.VerifyCalls, params)
	m.mu.Unlock()

	if m.VerifyCallbackFunc != nil {
		return m.VerifyCallbackFunc(ctx, params)
	}
	return nil
}

func (m *MockGateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	m.mu.Lock()
	m.ParseCalls = append(m.ParseCalls, params)
	m.mu.Unlock()

	if m.ParseCallbackFunc != nil {
		return m.ParseCallbackFunc(params)
	}

	result := &CallbackResult{
		CorrelationID: params.Get("correlation_id"),
		RawStatus:     params.Get("status"),
	}
	switch params.Get("status") {
	case "failed":
		result.Status = StatusFailed
	case "cancelled":
		result.Status = StatusCancelled
	default:
		result.Status = StatusSuccess
	}
	return result, nil
}

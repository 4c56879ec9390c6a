package payment

import (
	"context"
	"net/url"
)

// CODGateway is the cash-on-delivery pseudo gateway. It never opens a hosted
// session and never receives callbacks; confirmation happens synchronously on
// the order itself. It lives in the registry so "cod" resolves like any other
// method name.
type CODGateway struct{}

func NewCODGateway() *CODGateway { return &CODGateway{} }

func (g *CODGateway) Name() string { return "cod" }

func (g *CODGateway) CreateSession(_ context.Context, _ Request) (*Session, error) {
	return nil, ErrSessionNotSupported
}

func (g *CODGateway) VerifyCallback(_ context.Context, _ url.Values) error {
	return ErrInvalidSignature
}

func (g *CODGateway) ParseCallback(_ url.Values) (*CallbackResult, error) {
	return nil, ErrSessionNotSupported
}

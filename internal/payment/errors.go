package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned by VerifyCallback when a callback's
	// signature or verification hash does not check out. Callbacks failing
	// verification must never change order state.
	ErrInvalidSignature = errors.New("payment: invalid callback signature")

	// ErrMissingCredentials is returned by adapter constructors when a
	// required credential is blank.
	ErrMissingCredentials = errors.New("payment: missing gateway credentials")

	// ErrUnknownGateway is returned by the registry for names it has no
	// adapter for.
	ErrUnknownGateway = errors.New("payment: unknown gateway")

	// ErrSessionNotSupported is returned by gateways that settle
	// synchronously and never open a hosted session.
	ErrSessionNotSupported = errors.New("payment: gateway does not support hosted sessions")
)

// GatewayError wraps a failure talking to a specific provider so callers can
// log which side of the wire misbehaved.
type GatewayError struct {
	Gateway string
	Op      string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment: %s %s: %v", e.Gateway, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func gatewayErr(gateway, op string, err error) error {
	return &GatewayError{Gateway: gateway, Op: op, Err: err}
}

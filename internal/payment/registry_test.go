package payment

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry(NewCODGateway(), NewMockGateway("bkash"), NewMockGateway("nagad"))
	require.NoError(t, err)

	gw, err := registry.Get("bkash")
	require.NoError(t, err)
	assert.Equal(t, "bkash", gw.Name())

	_, err = registry.Get("stripe")
	assert.ErrorIs(t, err, ErrUnknownGateway)

	assert.Equal(t, []string{"bkash", "cod", "nagad"}, registry.Names())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(NewMockGateway("bkash"), NewMockGateway("bkash"))
	assert.Error(t, err)
}

func TestCODGateway(t *testing.T) {
	gw := NewCODGateway()
	assert.Equal(t, "cod", gw.Name())

	_, err := gw.CreateSession(context.Background(), Request{OrderNumber: "ORD-X"})
	assert.ErrorIs(t, err, ErrSessionNotSupported)

	assert.ErrorIs(t, gw.VerifyCallback(context.Background(), url.Values{}), ErrInvalidSignature)
}

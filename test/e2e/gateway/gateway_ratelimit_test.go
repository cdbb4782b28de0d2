package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/chatgate/pkg/gatewaysdk"
)

// TestRateLimitCurrentKeyEndpoint verifies that /current-key is rate limited.
// This endpoint has strict limits (5 req/min) to slow down guessing of the
// admin secret.
func TestRateLimitCurrentKeyEndpoint(t *testing.T) {
	client, cleanup := setupGatewayContainerWithDefaultRateLimits(t)
	defer cleanup()

	for i := range 5 {
		_, err := client.GetCurrentKey(t.Context(), "guess")
		require.ErrorIs(t, err, gatewaysdk.ErrForbidden, "request %d should not be rate limited yet", i+1)
	}

	_, err := client.GetCurrentKey(t.Context(), adminSecret)
	require.ErrorIs(t, err, gatewaysdk.ErrRateLimited, "should be rate limited after 5 requests")
}

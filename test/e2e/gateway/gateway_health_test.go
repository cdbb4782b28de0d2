package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness endpoint and its /health alias.
func TestLivezEndpoint(t *testing.T) {
	client, cleanup := setupGatewayContainer(t, nil)
	defer cleanup()

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetHealth(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies the key store and key checks report ok.
func TestReadyzEndpoint(t *testing.T) {
	client, cleanup := setupGatewayContainer(t, nil)
	defer cleanup()

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.KeyStore)
	require.Equal(t, "ok", health.Checks.Key)
}

// TestReadyzSQLiteDriver verifies the gateway starts on the sqlite driver.
func TestReadyzSQLiteDriver(t *testing.T) {
	client, cleanup := setupGatewayContainer(t, map[string]string{
		"KEY_STORE_DRIVER": "sqlite",
	})
	defer cleanup()

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
}

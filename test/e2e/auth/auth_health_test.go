package auth_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint works.
func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies the readiness check reports database and signer.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
	require.Empty(t, health.Checks.Cooldown, "no redis configured")
}

// TestJWKSEndpoint verifies the public signing keys are published.
func TestJWKSEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1, "AUTH_NUM_KEYS=1")

	for _, key := range jwks.Keys {
		require.Equal(t, "EdDSA", key.Alg)
		require.Equal(t, "sig", key.Use)
		require.NotEmpty(t, key.Kid)
	}
}

// TestMetricsEndpoint verifies the Prometheus endpoint exposes code metrics
// once a code has been issued.
func TestMetricsEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, err := client.SendResetCode(t.Context(), clientEmail)
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "oncree_auth_"), "expected service metrics in output")
}

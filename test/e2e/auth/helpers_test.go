package auth_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "oncree-auth-test:latest"

	clientEmail    = "client@example.com"
	clientPassword = "Client123!"
	managerEmail   = "manager@example.com"
	managerPass    = "Manager123!"
	adminEmail     = "admin@example.com"
	adminPassword  = "Admin123!"
)

// seedUsers is the SEED_USERS value every container starts with.
var seedUsers = fmt.Sprintf("%s:%s:client,%s:%s:manager:mfa,%s:%s:admin:mfa",
	clientEmail, clientPassword,
	managerEmail, managerPass,
	adminEmail, adminPassword,
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	// Build the Docker image once before all tests
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	// Run all tests
	exitCode := m.Run()

	// Clean up the Docker image after all tests complete
	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image if it doesn't exist.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the container environment shared by every test.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_DATABASE_FILE":   "/auth.db",
		"AUTH_PEPPER_FILE":     "/pepper",
		"AUTH_ISSUER":          "oncree-auth",
		"AUTH_NUM_KEYS":        "1",
		"ENV":                  "test",
		"LOG_LEVEL":            "info",
		"LOG_FORMAT":           "json",
		"OTP_RETURN_TO_CLIENT": "true",
		"RESEND_COOLDOWN":      "0",
		"SEED_USERS":           seedUsers,
	}
}

// relaxedRateLimits keeps the per-route limits out of the way of tests
// that make many rapid requests.
var relaxedRateLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
	"RATELIMIT_LENIENT_REQUESTS":  "1000",
	"RATELIMIT_LENIENT_BURST":     "1000",
}

// setupAuthContainer starts the auth service in a container with relaxed
// rate limits and returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedRateLimits)
	return startContainer(t, env)
}

// setupAuthContainerWithEnv starts the service with relaxed rate limits and
// the given overrides.
func setupAuthContainerWithEnv(t *testing.T, overrides map[string]string) (string, func()) {
	t.Helper()
	env := baseEnv()
	maps.Copy(env, relaxedRateLimits)
	maps.Copy(env, overrides)
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with DEFAULT rate limits.
// This is specifically for testing that rate limiting actually works.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	// Get the mapped port
	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// loginWithEmailCode completes a login for an account with emailed MFA.
func loginWithEmailCode(t *testing.T, client *authsdk.SDKClient, email, password string) *authsdk.Session {
	t.Helper()
	ctx := t.Context()

	_, resp, err := client.AuthenticateWithPassword(ctx, email, password)
	require.ErrorIs(t, err, authsdk.ErrMFARequired)
	require.NotEmpty(t, resp.ChallengeID)

	code, err := client.GetDevOTP(ctx, resp.ChallengeID)
	require.NoError(t, err)

	session, err := client.VerifyMFA(ctx, resp.ChallengeID, code, "email")
	require.NoError(t, err, "MFA verification should succeed")
	return session
}

// assertAPIError checks err is an *authsdk.APIError with the given code.
func assertAPIError(t *testing.T, err error, code string) *authsdk.APIError {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code, "unexpected error: %v", err)
	return apiErr
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// wrongCode returns a six digit code different from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

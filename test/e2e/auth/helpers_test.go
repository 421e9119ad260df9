//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/cookieauth/pkg/authsdk"
)

/*
 * Container setup and shared assertions for the cookie session end-to-end
 * tests. The image is built once in TestMain; every test gets a fresh
 * container so rate limit buckets and users never leak between tests.
 */

const (
	testImageName = "cookieauth-test:latest"

	signingSecret = "e2e-signing-secret-0123456789abcdef"

	userEmail    = "ada@example.com"
	userPassword = "Lovelace1815!"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building cookieauth Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up cookieauth Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// containerEnv is the environment every test container starts with. Extra
// entries override the defaults.
func containerEnv(extra map[string]string) map[string]string {
	env := map[string]string{
		"ENV":                    "test",
		"LOG_LEVEL":              "info",
		"AUTH_SIGNING_SECRET":    signingSecret,
		"AUTH_ACCESS_TOKEN_TTL":  "15m",
		"AUTH_REFRESH_TOKEN_TTL": "168h",
		// Relaxed limits so tests making rapid requests don't trip them
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
		"RATELIMIT_LENIENT_REQUESTS":  "1000",
		"RATELIMIT_LENIENT_BURST":     "1000",
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// setupAuthContainer starts the service, provisions the test user through
// the CLI and returns the base URL.
func setupAuthContainer(t *testing.T, extraEnv map[string]string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          containerEnv(extraEnv),
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	code, out, err := container.Exec(ctx, []string{
		"cookieauth", "users", "create",
		"--email", userEmail,
		"--password", userPassword,
		"--first-name", "Ada",
		"--last-name", "Lovelace",
	})
	require.NoError(t, err)
	if code != 0 {
		msg, _ := io.ReadAll(out)
		t.Fatalf("users create exited %d: %s", code, msg)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func newClient(t *testing.T, baseURL string) *authsdk.Client {
	t.Helper()
	client, err := authsdk.NewClient(baseURL)
	require.NoError(t, err)
	return client
}

// loggedInClient returns a client holding a fresh session for the test user.
func loggedInClient(t *testing.T, baseURL string) *authsdk.Client {
	t.Helper()
	client := newClient(t, baseURL)
	user, err := client.Login(t.Context(), userEmail, userPassword)
	require.NoError(t, err)
	require.Equal(t, userEmail, user.Email)
	return client
}

func requireAPIError(t *testing.T, err error, want *authsdk.APIError) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want, "got %v", err)
}

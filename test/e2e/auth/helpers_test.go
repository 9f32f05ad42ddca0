//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, account helpers, and assertions.
 */

const (
	testImageName = "daybook-auth-test:latest"

	adminEmail     = "admin@daybook.test"
	adminPassword  = "Admin123!"
	userPassword   = "hunter2hunter2"
	logoutRedirect = "/login"
	resetURLBase   = "http://daybook.test/reset-password"
)

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// authService is a running auth container.
type authService struct {
	BaseURL   string
	container testcontainers.Container
}

// baseEnv is the container environment shared by every test. Rate limits
// are raised so tests making many rapid requests are not throttled.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_ISSUER":         "daybook-auth",
		"AUTH_ALGORITHM":      "EdDSA",
		"COOKIE_SECURE":       "false",
		"LOGOUT_REDIRECT_URL": logoutRedirect,
		"RESET_URL_BASE":      resetURLBase,
		"ADMIN_EMAIL":         adminEmail,
		"ADMIN_PASSWORD":      adminPassword,
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",

		"RATELIMIT_CREDENTIAL_REQUESTS": "1000",
		"RATELIMIT_CREDENTIAL_BURST":    "1000",
		"RATELIMIT_RECOVERY_REQUESTS":   "1000",
		"RATELIMIT_RECOVERY_BURST":      "1000",
		"RATELIMIT_SESSION_REQUESTS":    "1000",
		"RATELIMIT_SESSION_BURST":       "1000",
		"RATELIMIT_ADMIN_REQUESTS":      "1000",
		"RATELIMIT_ADMIN_BURST":         "1000",
	}
}

// setupAuthContainer starts the auth service with relaxed rate limits.
// Entries in overrides replace the base environment; an empty value
// removes the key.
func setupAuthContainer(t *testing.T, overrides map[string]string) *authService {
	t.Helper()
	ctx := context.Background()

	env := baseEnv()
	for k, v := range overrides {
		if v == "" {
			delete(env, k)
			continue
		}
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return &authService{
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		container: container,
	}
}

// withDefaultRateLimits drops the relaxed RATELIMIT_* overrides so the
// production profiles apply.
func withDefaultRateLimits() map[string]string {
	out := map[string]string{}
	for k := range baseEnv() {
		if strings.HasPrefix(k, "RATELIMIT_") {
			out[k] = ""
		}
	}
	return out
}

// newClient returns a browser-like client with an empty cookie jar.
func (s *authService) newClient(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	client, err := authsdk.NewSDKClient(s.BaseURL)
	require.NoError(t, err)
	return client
}

// signIn registers a fresh account and returns its client and profile.
func (s *authService) signIn(t *testing.T, email string) (*authsdk.SDKClient, *authsdk.MeResponse) {
	t.Helper()
	client := s.newClient(t)
	me, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:       email,
		Password:    userPassword,
		DisplayName: "E2E User",
	})
	require.NoError(t, err, "Register should succeed")
	require.NotEmpty(t, me.ID)
	return client, me
}

// signInAdmin logs in as the bootstrap admin.
func (s *authService) signInAdmin(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	client := s.newClient(t)
	require.NoError(t, client.Login(t.Context(), adminEmail, adminPassword), "Admin login should succeed")
	return client
}

// lastResetToken scrapes the most recent reset link from the container log.
// With no SMTP relay configured the service logs outgoing mail.
func (s *authService) lastResetToken(t *testing.T) string {
	t.Helper()

	var token string
	require.Eventually(t, func() bool {
		rc, err := s.container.Logs(context.Background())
		if err != nil {
			return false
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return false
		}
		matches := resetTokenPattern.FindAllSubmatch(raw, -1)
		if len(matches) == 0 {
			return false
		}
		token = string(matches[len(matches)-1][1])
		return true
	}, 10*time.Second, 200*time.Millisecond, "reset mail should be logged")

	return token
}

// countResetMails returns how many reset links the container has logged.
func (s *authService) countResetMails(t *testing.T) int {
	t.Helper()
	rc, err := s.container.Logs(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	return len(resetTokenPattern.FindAll(raw, -1))
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertAPIError checks err is the given API error, status and message.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.ErrorIs(t, err, want, "%s - got: %v", context, err)
}

package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/daybook/pkg/jwtx"
)

// Cookie names set by the service.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// SDKClient talks to the daybook auth service the way a browser does: tokens
// live in a cookie jar and are never seen by the caller unless asked for.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	base *url.URL
}

// NewSDKClient creates a client with its own cookie jar. Redirects are not
// followed so GET /auth/logout can be observed.
func NewSDKClient(baseURL string) (*SDKClient, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &SDKClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		base: u,
	}, nil
}

// Cookie returns the current value of a cookie in the jar.
func (c *SDKClient) Cookie(name string) (string, bool) {
	for _, ck := range c.HTTPClient.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

// SetCookie overwrites a cookie in the jar, e.g. to replay an old token.
func (c *SDKClient) SetCookie(name, value string) {
	c.HTTPClient.Jar.SetCookies(c.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Register creates an account and signs in.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*MeResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusCreated); err != nil {
		return nil, err
	}
	return &me, nil
}

// Login signs in and stores the session cookies.
func (c *SDKClient) Login(ctx context.Context, email, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// Refresh rotates the session cookies.
func (c *SDKClient) Refresh(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// Logout signs out through the API form of the endpoint.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// LogoutRedirect signs out through the browser form and returns the redirect
// target.
func (c *SDKClient) LogoutRedirect(ctx context.Context) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/auth/logout", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("logout: unexpected status %d", resp.StatusCode)
	}
	return resp.Header.Get("Location"), nil
}

// Me returns the signed in user's profile.
func (c *SDKClient) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// ForgotPassword requests a reset mail.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", ForgotPasswordRequest{Email: email})
	if err != nil {
		return nil, err
	}
	var out ForgotPasswordResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword completes a reset with the mailed token.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", ResetPasswordRequest{Token: token, Password: password})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// SetRole changes another user's role. Admin only.
func (c *SDKClient) SetRole(ctx context.Context, userID, role string) error {
	resp, err := c.doJSON(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID)+"/role", SetRoleRequest{Role: role})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// SignOutUser revokes every session of a user. Admin only.
func (c *SDKClient) SignOutUser(ctx context.Context, userID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(userID)+"/signout", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// CancelSubscription downgrades the signed in user to the free tier.
func (c *SDKClient) CancelSubscription(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/billing/cancel", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// JWKS fetches the published verification keys.
func (c *SDKClient) JWKS(ctx context.Context) (*jwtx.JWKS, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/.well-known/jwks.json", nil)
	if err != nil {
		return nil, err
	}
	var set jwtx.JWKS
	if err := decodeJSON(resp, &set, http.StatusOK); err != nil {
		return nil, err
	}
	return &set, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

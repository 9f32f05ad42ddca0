package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

// APIError is the error body every daybook auth endpoint returns:
//
//	{"error": "Invalid refresh token"}
//
// Messages are fixed strings. They never carry internals.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// WriteError writes e as a no-cache JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// Is matches on status and message so callers can use errors.Is against the
// predefined values with errors decoded by the client.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{StatusCode: status, Message: message}
}

var (
	// Refresh protocol
	ErrNoRefreshToken      = NewAPIError(http.StatusUnauthorized, "No refresh token")
	ErrInvalidRefreshToken = NewAPIError(http.StatusUnauthorized, "Invalid refresh token")
	ErrRefreshUserNotFound = NewAPIError(http.StatusUnauthorized, "User not found")

	// Guard
	ErrUnauthorized = NewAPIError(http.StatusUnauthorized, "Unauthorized")
	ErrInvalidToken = NewAPIError(http.StatusUnauthorized, "Invalid Token")
	ErrForbidden    = NewAPIError(http.StatusForbidden, "Forbidden")
	ErrNotFound     = NewAPIError(http.StatusNotFound, "User not found")

	// Credentials
	ErrInvalidCredentials = NewAPIError(http.StatusUnauthorized, "Invalid email or password")
	ErrInvalidResetToken  = NewAPIError(http.StatusBadRequest, "Invalid or expired reset token")
	ErrEmailTaken         = NewAPIError(http.StatusConflict, "Email already registered")
	ErrWeakPassword       = NewAPIError(http.StatusBadRequest, "Password must be at least 8 characters")

	ErrBadRequest         = NewAPIError(http.StatusBadRequest, "Invalid request")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "Service unavailable")
	ErrServer             = NewAPIError(http.StatusInternalServerError, "Internal server error")
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/daybook/internal/auth/cookies"
	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

// SessionHandler serves the cookie-carrying session endpoints.
type SessionHandler struct {
	TokenService *service.TokenService
	UserService  *service.UserService
	Cookies      *cookies.Transport

	// LogoutRedirect is where GET /auth/logout sends the browser.
	LogoutRedirect string
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates a user account on the free tier and signs it in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.MeResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid request or weak password"
//	@Failure		409		{object}	authsdk.APIError	"Email already registered"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/auth/register [post].
func (h *SessionHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	u, err := h.UserService.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.StartSession(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.Set(w, pair.Access, pair.Refresh)
	httpx.WriteJSON(w, http.StatusCreated, meResponse(u))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Checks email and password and sets the access and refresh cookies.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SuccessResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid request"
//	@Failure		401		{object}	authsdk.APIError	"Invalid email or password"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/auth/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	_, pair, err := h.TokenService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.Set(w, pair.Access, pair.Refresh)
	writeSuccess(w, http.StatusOK)
}

// HandleRefresh godoc
//
//	@Summary		Refresh session
//	@Description	Exchanges the refresh cookie for a new access and refresh pair.
//	@Description	The presented refresh token is revoked; replaying it fails.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.SuccessResponse
//	@Failure		401	{object}	authsdk.APIError	"No refresh token, Invalid refresh token or User not found"
//	@Failure		503	{object}	authsdk.APIError	"Session store unavailable"
//	@Router			/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	raw, _ := h.Cookies.RefreshToken(r)

	pair, err := h.TokenService.Refresh(r.Context(), raw)
	if err != nil {
		refreshAPIError(r, err).WriteError(w)
		return
	}

	h.Cookies.Set(w, pair.Access, pair.Refresh)
	writeSuccess(w, http.StatusOK)
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Clears both cookies and revokes the refresh session when possible.
//	@Description	GET redirects the browser; POST answers with JSON. Neither fails.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.SuccessResponse	"POST"
//	@Success		302	"GET, redirects to the configured page"
//	@Router			/auth/logout [get]
//	@Router			/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := h.Cookies.RefreshToken(r); ok {
		h.TokenService.Logout(r.Context(), raw)
	}
	h.Cookies.Clear(w)

	if r.Method == http.MethodGet {
		http.Redirect(w, r, h.LogoutRedirect, http.StatusFound)
		return
	}
	writeSuccess(w, http.StatusOK)
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the public profile of the signed in user.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.APIError	"Unauthorized or Invalid Token"
//	@Failure		404	{object}	authsdk.APIError	"User not found"
//	@Router			/auth/me [get].
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := service.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	u, err := h.UserService.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse(u))
}

func meResponse(u domain.User) authsdk.MeResponse {
	return authsdk.MeResponse{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		Role:             string(u.Role),
		SubscriptionTier: string(u.SubscriptionTier),
		CreatedAt:        u.CreatedAt,
	}
}

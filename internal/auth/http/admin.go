package http

import (
	"net/http"

	"github.com/aussiebroadwan/daybook/internal/auth/domain"
	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

// AdminHandler serves user administration. Every route sits behind an
// admin guard.
type AdminHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// HandleSetRole godoc
//
//	@Summary		Set user role
//	@Description	Changes a user's role. Tokens already issued keep their old role claim,
//	@Description	but admin checks re-read the directory.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"User ID"
//	@Param			body	body		authsdk.SetRoleRequest	true	"New role"	Enums(user, admin)
//	@Success		200		{object}	authsdk.SuccessResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid request"
//	@Failure		401		{object}	authsdk.APIError	"Unauthorized or Invalid Token"
//	@Failure		403		{object}	authsdk.APIError	"Forbidden"
//	@Failure		404		{object}	authsdk.APIError	"User not found"
//	@Router			/admin/users/{id}/role [put].
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SetRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	if err := h.UserService.SetRole(r.Context(), r.PathValue("id"), domain.Role(req.Role)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

// HandleSignOut godoc
//
//	@Summary		Sign a user out everywhere
//	@Description	Revokes every refresh session of a user. Access tokens run out on their own.
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.SuccessResponse
//	@Failure		401	{object}	authsdk.APIError	"Unauthorized or Invalid Token"
//	@Failure		403	{object}	authsdk.APIError	"Forbidden"
//	@Failure		404	{object}	authsdk.APIError	"User not found"
//	@Failure		503	{object}	authsdk.APIError	"Session store unavailable"
//	@Router			/admin/users/{id}/signout [post].
func (h *AdminHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if _, err := h.TokenService.SignOutEverywhere(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

type BillingHandler struct {
	UserService *service.UserService
}

// HandleCancel godoc
//
//	@Summary		Cancel subscription
//	@Description	Downgrades the signed in user to the free tier.
//	@Tags			Billing
//	@Produce		json
//	@Success		200	{object}	authsdk.SuccessResponse
//	@Failure		401	{object}	authsdk.APIError	"Unauthorized or Invalid Token"
//	@Failure		404	{object}	authsdk.APIError	"User not found"
//	@Router			/billing/cancel [post].
func (h *BillingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	p, ok := service.PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	if err := h.UserService.CancelSubscription(r.Context(), p.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/daybook/internal/auth/service"
	"github.com/aussiebroadwan/daybook/pkg/authsdk"
	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

// forgotPasswordMessage is returned for every well-formed request, whether or
// not the address belongs to an account.
const forgotPasswordMessage = "If that email is registered, a reset link has been sent."

type PasswordHandler struct {
	ResetService *service.ResetService
}

// HandleForgot godoc
//
//	@Summary		Request password reset
//	@Description	Mails a one-shot reset link valid for one hour.
//	@Description	The response is identical for known and unknown addresses.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	authsdk.ForgotPasswordResponse
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/auth/forgot-password [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err == nil && req.Email != "" {
		h.ResetService.RequestReset(r.Context(), req.Email)
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ForgotPasswordResponse{
		Success: true,
		Message: forgotPasswordMessage,
	})
}

// HandleReset godoc
//
//	@Summary		Reset password
//	@Description	Consumes a reset token, sets the new password and signs out every session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		200		{object}	authsdk.SuccessResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid or expired reset token, or weak password"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/auth/reset-password [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrBadRequest.WriteError(w)
		return
	}

	if err := h.ResetService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK)
}

package http

import (
	"net/http"

	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
)

const (
	msgResetCodeSent     = "if an account exists for this email, a reset code has been sent"
	msgResetCodeVerified = "code verified"
	msgPasswordReset     = "password has been reset"
)

// PasswordHandler serves the password recovery flow.
type PasswordHandler struct {
	PasswordService *service.PasswordService
}

// HandleSendCode handles POST /password/send-code
//
//	@Summary		Request a password reset code
//	@Description	Mails a six digit reset code when the account exists. The answer is identical for unknown emails.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SendCodeRequest	true	"Account email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"Malformed body"
//	@Failure		422		{object}	authsdk.APIError	"Invalid email"
//	@Failure		429		{object}	authsdk.APIError	"Cooldown, see Retry-After"
//	@Failure		503		{object}	authsdk.APIError	"Code could not be delivered"
//	@Router			/password/send-code [post].
func (h *PasswordHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SendCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.PasswordService.SendResetCode(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msgResetCodeSent})
}

// HandleVerifyCode handles POST /password/verify-code
//
//	@Summary		Check a password reset code
//	@Description	Checks the code without using it up; submit it again with the new password.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.VerifyCodeRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid or expired code"
//	@Failure		422		{object}	authsdk.APIError	"Validation error"
//	@Failure		429		{object}	authsdk.APIError	"Too many attempts"
//	@Router			/password/verify-code [post].
func (h *PasswordHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.PasswordService.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msgResetCodeVerified})
}

// HandleReset handles POST /password/reset
//
//	@Summary		Reset the password
//	@Description	Consumes the reset code and stores the new password.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetPasswordRequest	true	"Email, code and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid or expired code"
//	@Failure		422		{object}	authsdk.APIError	"Validation error"
//	@Failure		429		{object}	authsdk.APIError	"Too many attempts"
//	@Router			/password/reset [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	err := h.PasswordService.ResetPassword(r.Context(), req.Email, req.Code, req.Password, req.PasswordConfirmation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msgPasswordReset})
}

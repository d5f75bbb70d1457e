package http

import (
	"context"
	"net/http"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

// MeHandler serves the authenticated account's profile and MFA settings.
type MeHandler struct {
	UserService *service.UserService
	MFAService  *service.MFAService
}

func meResponse(u domain.User) authsdk.MeResponse {
	return authsdk.MeResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Type:        string(u.Type),
		MFAEnabled:  u.MFAEnabled != nil,
		TOTPEnabled: u.TOTPEnabled != nil,
		CreatedAt:   u.CreatedAt,
	}
}

// HandleMe handles GET /v1/me
//
//	@Summary		Get the current account
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Router			/v1/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load user", "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse(user))
}

// HandleSetMFA handles PUT /v1/me/mfa
//
//	@Summary		Turn the emailed login code on or off
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SetMFARequest	true	"Desired state"
//	@Success		200		{object}	authsdk.MeResponse
//	@Failure		401		{object}	authsdk.APIError	"Invalid or missing access token"
//	@Router			/v1/me/mfa [put].
func (h *MeHandler) HandleSetMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.SetMFARequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.MFAService.SetEmailMFA(ctx, userID, req.Enabled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("email mfa updated", "enabled", req.Enabled)
	httpx.WriteJSON(w, http.StatusOK, meResponse(user))
}

// HandleEnrollTOTP handles POST /v1/me/mfa/totp/enroll
//
//	@Summary		Start authenticator app enrollment
//	@Description	Generates a TOTP secret and otpauth URL. It is only used once confirmed.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		409	{object}	authsdk.APIError	"Already enabled"
//	@Router			/v1/me/mfa/totp/enroll [post].
func (h *MeHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Secret:  enrollment.Secret,
		URL:     enrollment.URL,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleConfirmTOTP handles POST /v1/me/mfa/totp/confirm
//
//	@Summary		Confirm authenticator app enrollment
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Param			body	body	authsdk.TOTPCodeRequest	true	"Code from the app"
//	@Success		204
//	@Failure		400	{object}	authsdk.APIError	"Invalid code"
//	@Failure		409	{object}	authsdk.APIError	"Not enrolled or already enabled"
//	@Router			/v1/me/mfa/totp/confirm [post].
func (h *MeHandler) HandleConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	h.withTOTPCode(w, r, h.MFAService.ConfirmTOTP, "totp enabled")
}

// HandleDisableTOTP handles DELETE /v1/me/mfa/totp
//
//	@Summary		Remove the authenticator app
//	@Tags			Account
//	@Security		BearerAuth
//	@Accept			json
//	@Param			body	body	authsdk.TOTPCodeRequest	true	"Current code from the app"
//	@Success		204
//	@Failure		400	{object}	authsdk.APIError	"Invalid code"
//	@Failure		409	{object}	authsdk.APIError	"Not enrolled"
//	@Router			/v1/me/mfa/totp [delete].
func (h *MeHandler) HandleDisableTOTP(w http.ResponseWriter, r *http.Request) {
	h.withTOTPCode(w, r, h.MFAService.DisableTOTP, "totp disabled")
}

func (h *MeHandler) withTOTPCode(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID, code string) error,
	logMsg string,
) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := fn(ctx, userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info(logMsg)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

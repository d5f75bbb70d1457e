package http

import (
	"errors"
	"net/http"

	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/internal/auth/store"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

var (
	errTOTPNotEnrolled = authsdk.NewAPIError(http.StatusConflict, "totp_not_enrolled",
		"no authenticator is enrolled for this account")
	errTOTPAlreadyEnabled = authsdk.NewAPIError(http.StatusConflict, "totp_already_enabled",
		"an authenticator is already enabled for this account")
)

// apiError maps a service error onto the response the client sees. Every
// code rejection collapses into invalid_code.
func apiError(err error) *authsdk.APIError {
	var verr *service.ValidationError
	var apiErr *authsdk.APIError

	switch {
	case service.IsCodeRejection(err), errors.Is(err, service.ErrInvalidTOTPCode):
		apiErr = authsdk.ErrInvalidCode
	case errors.Is(err, service.ErrLockedOut):
		apiErr = authsdk.ErrLockedOut
	case errors.As(err, &verr):
		apiErr = authsdk.ErrValidation.WithDescription(verr.Error())
	case errors.Is(err, service.ErrDeliveryFailure):
		apiErr = authsdk.ErrDeliveryFailed
	case errors.Is(err, service.ErrCooldown):
		apiErr = authsdk.ErrCooldown
	case errors.Is(err, service.ErrInvalidCredentials):
		apiErr = authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrTOTPNotEnrolled):
		apiErr = errTOTPNotEnrolled
	case errors.Is(err, service.ErrTOTPAlreadyEnabled):
		apiErr = errTOTPAlreadyEnabled
	case errors.Is(err, store.ErrNotFound):
		apiErr = authsdk.ErrNotFound
	default:
		return authsdk.ErrServerError
	}

	if after, ok := service.RetryAfter(err); ok && after > 0 {
		apiErr = apiErr.WithRetryAfter(after)
	}
	return apiErr
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	}
	apiErr.WriteError(w)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
}

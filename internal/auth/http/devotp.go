package http

import (
	"net/http"

	"github.com/oncreesaas/oncree/internal/auth/devotp"
	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
)

// DevOTPHandler exposes captured codes to local and test clients. The
// router only mounts it when a capture store is configured.
type DevOTPHandler struct {
	Store devotp.Store
}

// ServeHTTP handles GET /dev/otp
//
//	@Summary		Read a captured code (development only)
//	@Description	Look up by challenge_id, or by email and purpose for password resets. Only mounted when OTP_RETURN_TO_CLIENT is set outside production.
//	@Tags			Dev
//	@Produce		json
//	@Param			challenge_id	query		string	false	"Login challenge id"
//	@Param			email			query		string	false	"Account email"
//	@Param			purpose			query		string	false	"password_reset or login_mfa"
//	@Success		200				{object}	authsdk.DevOTPResponse
//	@Failure		404				{object}	authsdk.APIError	"No live code"
//	@Failure		422				{object}	authsdk.APIError	"Bad query"
//	@Router			/dev/otp [get].
func (h *DevOTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		code string
		ok   bool
	)
	switch {
	case q.Get("challenge_id") != "":
		code, ok = h.Store.Get(ctx, q.Get("challenge_id"))
	case q.Get("email") != "":
		purpose := domain.Purpose(q.Get("purpose"))
		if purpose == "" {
			purpose = domain.PurposePasswordReset
		}
		if !purpose.Valid() {
			authsdk.ErrValidation.WithDescription("purpose: must be password_reset or login_mfa").WriteError(w)
			return
		}
		code, ok = h.Store.Latest(ctx, domain.NormalizeEmail(q.Get("email")), string(purpose))
	default:
		authsdk.ErrValidation.WithDescription("challenge_id or email is required").WriteError(w)
		return
	}

	if !ok {
		authsdk.ErrNotFound.WithDescription("no live code").WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.DevOTPResponse{Code: code})
}

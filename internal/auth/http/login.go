package http

import (
	"math"
	"net/http"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/service"
	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/oncreesaas/oncree/pkg/httpx"
)

// LoginHandler serves the password login and its second-factor step.
type LoginHandler struct {
	LoginService *service.LoginService
	Now          func() time.Time
}

func (h *LoginHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// HandleLogin handles POST /login
//
//	@Summary		Log in with email and password
//	@Description	Returns an access token, or a challenge id when the account requires a second factor.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		401		{object}	authsdk.APIError	"Invalid credentials"
//	@Failure		422		{object}	authsdk.APIError	"Validation error"
//	@Failure		503		{object}	authsdk.APIError	"Code could not be delivered"
//	@Router			/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.LoginService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.loginResponse(res))
}

// HandleVerify handles POST /mfa/verify
//
//	@Summary		Complete a login with a one-time code
//	@Description	method is "email" (default) for the mailed code or "totp" for an authenticator app code.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.MFAVerifyRequest	true	"Challenge and code"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError	"Invalid or expired code"
//	@Failure		422		{object}	authsdk.APIError	"Validation error"
//	@Failure		429		{object}	authsdk.APIError	"Too many attempts"
//	@Router			/mfa/verify [post].
func (h *LoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFAVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.LoginService.VerifyMFA(r.Context(), req.ChallengeID, req.Code, domain.MFAMethod(req.Method))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.loginResponse(res))
}

// HandleResend handles POST /mfa/resend
//
//	@Summary		Mail a new login code
//	@Description	Replaces the challenge with a new one. Only the returned challenge id is valid afterwards.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.MFAResendRequest	true	"Current challenge"
//	@Success		200		{object}	authsdk.ChallengeResponse
//	@Failure		400		{object}	authsdk.APIError	"Unknown, used or replaced challenge"
//	@Failure		429		{object}	authsdk.APIError	"Cooldown, see Retry-After"
//	@Failure		503		{object}	authsdk.APIError	"Code could not be delivered"
//	@Router			/mfa/resend [post].
func (h *LoginHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFAResendRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	issued, err := h.LoginService.ResendMFA(r.Context(), req.ChallengeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ChallengeResponse{
		ChallengeID: issued.ChallengeID,
		ExpiresAt:   issued.ExpiresAt,
	})
}

func (h *LoginHandler) loginResponse(res domain.LoginResult) authsdk.LoginResponse {
	out := authsdk.LoginResponse{Type: string(res.Type)}

	if res.Token != nil {
		out.Token = res.Token.Token
		out.ExpiresIn = int(math.Ceil(res.Token.ExpiresAt.Sub(h.now()).Seconds()))
		return out
	}

	if res.Challenge != nil {
		expires := res.Challenge.ExpiresAt
		out.MFARequired = true
		out.ChallengeID = res.Challenge.ChallengeID
		out.ExpiresAt = &expires
		for _, m := range res.Methods {
			out.Methods = append(out.Methods, string(m))
		}
	}
	return out
}

package authsdk

import (
	"context"
	"net/http"
)

// Me returns the profile of the authenticated account.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.client.call(ctx, http.MethodGet, "/v1/me", nil, s.accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEmailMFA turns the emailed login code on or off.
func (s *Session) SetEmailMFA(ctx context.Context, enabled bool) (*MeResponse, error) {
	var out MeResponse
	req := SetMFARequest{Enabled: enabled}
	if err := s.client.call(ctx, http.MethodPut, "/v1/me/mfa", req, s.accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollTOTP generates a new authenticator secret. It only becomes active
// after ConfirmTOTP.
func (s *Session) EnrollTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	var out TOTPEnrollResponse
	if err := s.client.call(ctx, http.MethodPost, "/v1/me/mfa/totp/enroll", nil, s.accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmTOTP activates the enrolled secret with a code from the app.
func (s *Session) ConfirmTOTP(ctx context.Context, code string) error {
	req := TOTPCodeRequest{Code: code}
	return s.client.call(ctx, http.MethodPost, "/v1/me/mfa/totp/confirm", req, s.accessToken, nil, http.StatusNoContent)
}

// DisableTOTP removes the authenticator after checking a current code.
func (s *Session) DisableTOTP(ctx context.Context, code string) error {
	req := TOTPCodeRequest{Code: code}
	return s.client.call(ctx, http.MethodDelete, "/v1/me/mfa/totp", req, s.accessToken, nil, http.StatusNoContent)
}

// ListChallenges returns the challenges recorded for email. Requires an
// admin token minted with a second factor.
func (s *Session) ListChallenges(ctx context.Context, email string) (*ListChallengesResponse, error) {
	var out ListChallengesResponse
	path := "/v1/admin/challenges?email=" + urlQueryEscape(email)
	if err := s.client.call(ctx, http.MethodGet, path, nil, s.accessToken, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

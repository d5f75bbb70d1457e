package authsdk

import (
	"context"
	"errors"
	"net/http"
)

// ErrMFARequired is returned by AuthenticateWithPassword when the account
// has a second factor. Use Login and VerifyMFA to complete such logins.
var ErrMFARequired = errors.New("authsdk: multi-factor authentication required")

// Login checks email and password. The response either carries a token or
// reports MFARequired with the ChallengeID to answer.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.call(ctx, http.MethodPost, "/login", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyMFA answers a login challenge. method is "email" or "totp"; empty
// means email.
func (c *SDKClient) VerifyMFA(ctx context.Context, challengeID, code, method string) (*Session, error) {
	var out LoginResponse
	req := MFAVerifyRequest{ChallengeID: challengeID, Code: code, Method: method}
	if err := c.call(ctx, http.MethodPost, "/mfa/verify", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return c.sessionFromLogin(&out), nil
}

// ResendMFA mails a new login code. The returned challenge id replaces the
// old one.
func (c *SDKClient) ResendMFA(ctx context.Context, challengeID string) (*ChallengeResponse, error) {
	var out ChallengeResponse
	req := MFAResendRequest{ChallengeID: challengeID}
	if err := c.call(ctx, http.MethodPost, "/mfa/resend", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthenticateWithPassword logs in an account without a second factor and
// returns a Session. For MFA accounts it returns ErrMFARequired together
// with the login response.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, *LoginResponse, error) {
	resp, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if resp.MFARequired {
		return nil, resp, ErrMFARequired
	}
	return c.sessionFromLogin(resp), resp, nil
}

// GetDevOTP fetches the code of a login challenge from a service running
// with OTP_RETURN_TO_CLIENT. Never available in production.
func (c *SDKClient) GetDevOTP(ctx context.Context, challengeID string) (string, error) {
	var out DevOTPResponse
	path := "/dev/otp?challenge_id=" + urlQueryEscape(challengeID)
	if err := c.call(ctx, http.MethodGet, path, nil, "", &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Code, nil
}

// GetDevOTPForEmail fetches the newest code mailed to email for purpose
// ("password_reset" or "login_mfa").
func (c *SDKClient) GetDevOTPForEmail(ctx context.Context, email, purpose string) (string, error) {
	var out DevOTPResponse
	path := "/dev/otp?email=" + urlQueryEscape(email) + "&purpose=" + urlQueryEscape(purpose)
	if err := c.call(ctx, http.MethodGet, path, nil, "", &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Code, nil
}

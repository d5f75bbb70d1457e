package authsdk

import (
	"context"
	"net/http"
)

// SendResetCode asks for a password reset code to be mailed to email. The
// response is the same whether or not the account exists.
func (c *SDKClient) SendResetCode(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	req := SendCodeRequest{Email: email}
	if err := c.call(ctx, http.MethodPost, "/password/send-code", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyResetCode checks a reset code. The code stays usable for ResetPassword.
func (c *SDKClient) VerifyResetCode(ctx context.Context, email, code string) (*MessageResponse, error) {
	var out MessageResponse
	req := VerifyCodeRequest{Email: email, Code: code}
	if err := c.call(ctx, http.MethodPost, "/password/verify-code", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password, using up the code.
func (c *SDKClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.call(ctx, http.MethodPost, "/password/reset", req, "", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

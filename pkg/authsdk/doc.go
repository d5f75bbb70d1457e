/*
Package authsdk provides a client SDK for the OncreeSaaS authentication service.

# Overview

The service authenticates accounts with a password and, when the account
has enabled it, a one-time code mailed to the account or produced by an
authenticator app. It also runs the password recovery flow, which is built
on the same one-time codes.

The package is organized around two types:

  - SDKClient: the public flows (password recovery, login, health, JWKS)
  - Session: calls made with an access token (profile, MFA settings, admin)

# Password Recovery

	client := authsdk.NewSDKClient("https://auth.example.com")

	_, err := client.SendResetCode(ctx, "jane@example.com")
	// the user reads the six digit code from their inbox
	_, err = client.VerifyResetCode(ctx, "jane@example.com", code)
	_, err = client.ResetPassword(ctx, authsdk.ResetPasswordRequest{
		Email:                "jane@example.com",
		Code:                 code,
		Password:             newPassword,
		PasswordConfirmation: newPassword,
	})

SendResetCode answers the same way whether or not the account exists.
VerifyResetCode does not use the code up, so the same code is submitted
again with the new password.

# Login

	session, resp, err := client.AuthenticateWithPassword(ctx, email, password)
	if errors.Is(err, authsdk.ErrMFARequired) {
		session, err = client.VerifyMFA(ctx, resp.ChallengeID, code, "email")
	}

A lost or expired login code can be replaced with ResendMFA, which returns
a new challenge id. Only the newest code of an account is ever accepted.

# Errors

Every failed call returns an *APIError carrying the HTTP status, the error
code and, for cooldown and delivery failures, a RetryAfter hint. Wrong,
expired, replaced and already used codes all come back as ErrInvalidCode;
use errors.Is to compare:

	if errors.Is(err, authsdk.ErrLockedOut) {
		// request a new code
	}
*/
package authsdk

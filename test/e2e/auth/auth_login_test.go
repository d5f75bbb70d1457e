package auth_test

import (
	"testing"
	"time"

	"github.com/oncreesaas/oncree/pkg/authsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestLoginWithoutMFA verifies a password-only account gets a token at once.
func TestLoginWithoutMFA(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, resp, err := client.AuthenticateWithPassword(ctx, clientEmail, clientPassword)
	require.NoError(t, err)
	require.False(t, resp.MFARequired)
	require.Positive(t, resp.ExpiresIn)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, clientEmail, me.Email)
	require.Equal(t, "client", me.Type)
	require.False(t, me.MFAEnabled)
}

// TestLoginWithEmailMFA verifies the emailed second factor, including resend.
func TestLoginWithEmailMFA(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	resp, err := client.Login(ctx, managerEmail, managerPass)
	require.NoError(t, err)
	require.True(t, resp.MFARequired)
	require.Empty(t, resp.Token)
	require.Equal(t, []string{"email"}, resp.Methods)

	oldCode, err := client.GetDevOTP(ctx, resp.ChallengeID)
	require.NoError(t, err)

	resent, err := client.ResendMFA(ctx, resp.ChallengeID)
	require.NoError(t, err)
	require.NotEqual(t, resp.ChallengeID, resent.ChallengeID)

	// The first challenge was replaced by the resend
	_, err = client.VerifyMFA(ctx, resp.ChallengeID, oldCode, "email")
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCode)

	code, err := client.GetDevOTP(ctx, resent.ChallengeID)
	require.NoError(t, err)

	session, err := client.VerifyMFA(ctx, resent.ChallengeID, code, "email")
	require.NoError(t, err)
	require.Equal(t, "manager", session.AccountType())

	// A challenge is single use
	_, err = client.VerifyMFA(ctx, resent.ChallengeID, code, "email")
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCode)
}

// TestLoginWrongPassword verifies bad credentials never start a challenge.
func TestLoginWrongPassword(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	_, err := client.Login(ctx, managerEmail, "wrong-password")
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCredentials)

	_, err = client.Login(ctx, "nobody@example.com", "wrong-password")
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCredentials)

	_, err = client.GetDevOTPForEmail(ctx, managerEmail, "login_mfa")
	assertAPIError(t, err, authsdk.ErrorCodeNotFound)
}

// TestTOTPEnrollmentAndLogin enrolls an authenticator app and uses it as the
// second factor.
func TestTOTPEnrollmentAndLogin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, _, err := client.AuthenticateWithPassword(ctx, clientEmail, clientPassword)
	require.NoError(t, err)

	enroll, err := session.EnrollTOTP(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.URL, "otpauth://totp/")

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ConfirmTOTP(ctx, code))

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.True(t, me.TOTPEnabled)

	resp, err := client.Login(ctx, clientEmail, clientPassword)
	require.NoError(t, err)
	require.True(t, resp.MFARequired)
	require.Contains(t, resp.Methods, "totp")

	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	mfaSession, err := client.VerifyMFA(ctx, resp.ChallengeID, code, "totp")
	require.NoError(t, err)
	require.NotEmpty(t, mfaSession.AccessToken())
}

// TestEmailMFAToggle turns the emailed second factor on for a password-only
// account and checks the next login asks for it.
func TestEmailMFAToggle(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session, _, err := client.AuthenticateWithPassword(ctx, clientEmail, clientPassword)
	require.NoError(t, err)

	me, err := session.SetEmailMFA(ctx, true)
	require.NoError(t, err)
	require.True(t, me.MFAEnabled)

	_, _, err = client.AuthenticateWithPassword(ctx, clientEmail, clientPassword)
	require.ErrorIs(t, err, authsdk.ErrMFARequired)

	mfaSession := loginWithEmailCode(t, client, clientEmail, clientPassword)
	me, err = mfaSession.SetEmailMFA(ctx, false)
	require.NoError(t, err)
	require.False(t, me.MFAEnabled)
}

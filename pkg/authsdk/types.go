package authsdk

import (
	"time"

	"github.com/oncreesaas/oncree/pkg/jwtx"
)

// ============================================================================
// Password Recovery Types
// ============================================================================

// SendCodeRequest starts a password reset for an email address.
type SendCodeRequest struct {
	Email string `json:"email" example:"jane@example.com"`
}

// VerifyCodeRequest checks a reset code without using it up.
type VerifyCodeRequest struct {
	Email string `json:"email" example:"jane@example.com"`
	Code  string `json:"code" example:"123456"`
}

// ResetPasswordRequest sets a new password with a valid reset code.
type ResetPasswordRequest struct {
	Email                string `json:"email" example:"jane@example.com"`
	Code                 string `json:"code" example:"123456"`
	Password             string `json:"password" example:"correct-horse-battery"`
	PasswordConfirmation string `json:"password_confirmation" example:"correct-horse-battery"`
}

// MessageResponse is the body of endpoints that only acknowledge a request.
type MessageResponse struct {
	Message string `json:"message" example:"if the account exists, a code has been sent"`
}

// ============================================================================
// Login Types
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// LoginResponse is returned by POST /login and POST /mfa/verify. Either
// Token is set, or MFARequired is true and ChallengeID identifies the code
// that was mailed.
type LoginResponse struct {
	// Token is the signed access token (absent while MFA is pending)
	Token string `json:"token,omitempty"`

	// ExpiresIn is the token lifetime in seconds
	ExpiresIn int `json:"expires_in,omitempty"`

	// Type is the account type, which selects the dashboard to open
	Type string `json:"type" example:"consultant"`

	MFARequired bool       `json:"mfa_required,omitempty"`
	ChallengeID string     `json:"challenge_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	// Methods lists the second factors the account may answer with
	Methods []string `json:"methods,omitempty"`
}

// MFAVerifyRequest answers a login challenge. Method is "email" (default)
// or "totp".
type MFAVerifyRequest struct {
	ChallengeID string `json:"challenge_id" example:"6f1c1f5e-1d5b-4f0e-9a57-6a7b1d0d6c1e"`
	Code        string `json:"code" example:"123456"`
	Method      string `json:"method,omitempty" example:"email"`
}

type MFAResendRequest struct {
	ChallengeID string `json:"challenge_id" example:"6f1c1f5e-1d5b-4f0e-9a57-6a7b1d0d6c1e"`
}

// ChallengeResponse identifies a freshly issued login challenge.
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ============================================================================
// Account Types
// ============================================================================

// MeResponse is the profile of the authenticated account.
type MeResponse struct {
	ID          string    `json:"id" example:"01J9Z6Q4W0X8R2Y7K3M5N1P9TB"`
	Email       string    `json:"email" example:"jane@example.com"`
	Name        string    `json:"name,omitempty" example:"Jane Doe"`
	Type        string    `json:"type" example:"consultant"`
	MFAEnabled  bool      `json:"mfa_enabled"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

type SetMFARequest struct {
	Enabled bool `json:"enabled"`
}

// TOTPEnrollResponse carries a new authenticator secret. It is shown once.
type TOTPEnrollResponse struct {
	Secret  string `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	URL     string `json:"otpauth_url" example:"otpauth://totp/OncreeSaaS:jane@example.com?secret=JBSWY3DPEHPK3PXP&issuer=OncreeSaaS"`
	Issuer  string `json:"issuer" example:"OncreeSaaS"`
	Account string `json:"account" example:"jane@example.com"`
}

type TOTPCodeRequest struct {
	Code string `json:"code" example:"123456"`
}

// ============================================================================
// Admin Types
// ============================================================================

// ChallengeSummary describes one stored challenge. The code is never part
// of it.
type ChallengeSummary struct {
	ID           string     `json:"id"`
	Purpose      string     `json:"purpose" example:"password_reset"`
	State        string     `json:"state" example:"pending"`
	AttemptCount int        `json:"attempt_count"`
	AttemptsLeft int        `json:"attempts_left"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
}

type ListChallengesResponse struct {
	Challenges []ChallengeSummary `json:"challenges"`
}

// ============================================================================
// Dev Types
// ============================================================================

// DevOTPResponse is returned by GET /dev/otp, which only exists when the
// service runs with OTP_RETURN_TO_CLIENT outside production.
type DevOTPResponse struct {
	Code string `json:"code" example:"123456"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`

	// Cooldown is the resend cooldown backend; only reported when it is Redis
	Cooldown string `json:"cooldown,omitempty"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set used to verify access tokens.
type JWKSResponse jwtx.JWKS

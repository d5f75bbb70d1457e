package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the OncreeSaaS authentication service.
// It provides access to the public flows and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Session is an authenticated view of the service bound to an access token.
// Tokens are not refreshed; once expired, log in again.
type Session struct {
	client      *SDKClient
	accessToken string
	accountType string
	expiresAt   time.Time
}

// NewSession wraps an access token obtained elsewhere.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

// sessionFromLogin builds a Session from a completed login response.
func (c *SDKClient) sessionFromLogin(resp *LoginResponse) *Session {
	return &Session{
		client:      c,
		accessToken: resp.Token,
		accountType: resp.Type,
		expiresAt:   time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}

// AccessToken returns the bearer token of the session.
func (s *Session) AccessToken() string { return s.accessToken }

// AccountType is the account type reported at login, if known.
func (s *Session) AccountType() string { return s.accountType }

// Expired reports whether the access token has passed its lifetime. Sessions
// created with NewSession never report expiry.
func (s *Session) Expired() bool {
	return !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
}

package domain

import "time"

// AccessToken is a signed JWT handed back after a completed login.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
	Type      AccountType
	AMR       []string
}

// LoginResult is the outcome of a password check. Exactly one of Token or
// Challenge is set.
type LoginResult struct {
	Type      AccountType
	Token     *AccessToken
	Challenge *IssuedChallenge
	Methods   []MFAMethod
}

// MFARequired reports whether the caller has to answer a challenge next.
func (r LoginResult) MFARequired() bool { return r.Challenge != nil }

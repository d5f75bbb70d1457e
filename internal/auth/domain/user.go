package domain

import (
	"strings"
	"time"
)

// AccountType is the role-scoped dashboard an account belongs to.
type AccountType string

const (
	AccountAdmin      AccountType = "admin"
	AccountClient     AccountType = "client"
	AccountConsultant AccountType = "consultant"
	AccountComptable  AccountType = "comptable"
	AccountRH         AccountType = "rh"
	AccountManager    AccountType = "manager"
)

var accountTypes = []AccountType{
	AccountAdmin, AccountClient, AccountConsultant, AccountComptable, AccountRH, AccountManager,
}

func (t AccountType) Valid() bool {
	for _, v := range accountTypes {
		if v == t {
			return true
		}
	}
	return false
}

type User struct {
	ID           string
	Email        string // unique, lower-cased
	Name         string
	Type         AccountType
	PasswordHash string     // argon2 encoded
	MFAEnabled   *time.Time // email second factor enabled at (nullable)
	TOTPSecret   *string    // base32, set during enrollment (nullable)
	TOTPEnabled  *time.Time // enrollment confirmed at (nullable)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RequiresMFA reports whether login must be completed with a second factor.
func (u User) RequiresMFA() bool {
	return u.MFAEnabled != nil || u.TOTPEnabled != nil
}

// MFAMethods lists the second factors the account can answer a login
// challenge with. Email is always offered since the challenge is mailed.
func (u User) MFAMethods() []MFAMethod {
	if u.TOTPEnabled != nil && u.TOTPSecret != nil {
		return []MFAMethod{MFAMethodEmail, MFAMethodTOTP}
	}
	return []MFAMethod{MFAMethodEmail}
}

// NormalizeEmail is the canonical identity form used as a challenge key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

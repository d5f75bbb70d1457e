package domain

// MFAMethod is how the second factor of a login was answered.
type MFAMethod string

const (
	MFAMethodEmail MFAMethod = "email"
	MFAMethodTOTP  MFAMethod = "totp"
)

func (m MFAMethod) Valid() bool {
	return m == MFAMethodEmail || m == MFAMethodTOTP
}

// MFAEnrollment is returned when a TOTP secret is generated. The secret is
// shown once; it is only usable after confirmation with a valid code.
type MFAEnrollment struct {
	Secret  string `json:"secret"`
	URL     string `json:"otpauth_url"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

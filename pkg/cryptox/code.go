package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
)

// DefaultCodeDigits is the length of the one-time codes mailed to users.
const DefaultCodeDigits = 6

// GenerateNumericCode returns a zero padded decimal code drawn uniformly from
// [0, 10^digits).
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("code length must be between 1 and 18, got %d", digits)
	}

	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// HashCode binds a one-time code to the record it was issued for. The pepper
// keys the HMAC so a leaked table cannot be brute forced offline across the
// small code space.
func HashCode(binding, code string) string {
	mac := hmac.New(sha256.New, []byte(GetPepper()))
	mac.Write([]byte(binding))
	mac.Write([]byte{':'})
	mac.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CodeMatches reports whether code hashes to expected under binding.
func CodeMatches(binding, code, expected string) bool {
	got := HashCode(binding, code)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

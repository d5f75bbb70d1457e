package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrChallengeNotFound = errors.New("challenge_not_found")
	ErrChallengeExpired  = errors.New("challenge_expired")
	ErrCodeMismatch      = errors.New("code_mismatch")
	ErrLockedOut         = errors.New("locked_out")
	ErrAlreadyConsumed   = errors.New("already_consumed")
	ErrSuperseded        = errors.New("superseded")

	ErrValidation         = errors.New("validation_error")
	ErrDeliveryFailure    = errors.New("delivery_failed")
	ErrCooldown           = errors.New("cooldown")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// ValidationError names the offending input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// RetryAfterError tells the caller when the refused operation may be
// attempted again.
type RetryAfterError struct {
	Err   error
	After time.Duration
}

func (e *RetryAfterError) Error() string { return e.Err.Error() }

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfter extracts the delay carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var ra *RetryAfterError
	if errors.As(err, &ra) {
		return ra.After, true
	}
	return 0, false
}

// IsCodeRejection reports whether err is one of the outcomes that must look
// identical to the caller, so a client cannot tell a wrong code from an
// unknown or stale challenge.
func IsCodeRejection(err error) bool {
	return errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrChallengeExpired) ||
		errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrAlreadyConsumed) ||
		errors.Is(err, ErrSuperseded)
}

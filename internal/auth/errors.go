package auth

import (
	"errors"
	"fmt"
)

// Code classifies authentication failures so callers can pick the right
// recovery: re-consent, retry with backoff, or give up.
type Code string

const (
	// CodeConsentDenied means the user declined the consent flow.
	CodeConsentDenied Code = "consent_denied"

	// CodeReauthRequired means the cached credential is unusable (revoked
	// refresh token or scope mismatch) and the consent flow must be driven
	// again.
	CodeReauthRequired Code = "reauth_required"

	// CodeRefreshTransient means the token refresh failed for a reason
	// that retrying may fix (network error, timeout). Re-consent does not
	// help.
	CodeRefreshTransient Code = "refresh_transient"
)

// Error is a classified authentication error.
type Error struct {
	Code        Code
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConsentDenied returns an Error with CodeConsentDenied.
func ConsentDenied(description string) *Error {
	return &Error{Code: CodeConsentDenied, Description: description}
}

// ReauthRequired returns an Error with CodeReauthRequired.
func ReauthRequired(description string) *Error {
	return &Error{Code: CodeReauthRequired, Description: description}
}

// RefreshTransient returns an Error with CodeRefreshTransient wrapping the
// underlying cause.
func RefreshTransient(description string, err error) *Error {
	return &Error{Code: CodeRefreshTransient, Description: description, Err: err}
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var aerr *Error
	return errors.As(err, &aerr) && aerr.Code == code
}

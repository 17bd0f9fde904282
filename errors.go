package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	TextCodeEmptyString        = "EMPTY_STRING"
	TextCodeMismatchedPassword = "MISMATCHED_PASSWORD"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeInvalidTransition  = "INVALID_ACCOUNT_STATE_TRANSITION"
	TextCodeStampMismatch      = "SECURITY_STAMP_MISMATCH"
)

// ErrDuplicateEmail is returned by the store when the normalized email is taken
var ErrDuplicateEmail = goerrors.New("account email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned by the store for unknown accounts
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStoreUnavailable wraps infrastructure failures of the credential store
var ErrStoreUnavailable = goerrors.New("credential store unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyString).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("identity auth: password mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeMismatchedPassword).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for confirmation tokens past their expiration
var ErrTokenExpired = goerrors.New("confirmation token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify
var ErrTokenMalformed = goerrors.New("confirmation token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when an account state change is not allowed
var ErrInvalidTransition = goerrors.New("invalid account state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrSecurityStampMismatch is returned when the account changed since it was read
var ErrSecurityStampMismatch = goerrors.New("account security stamp changed", goerrors.CategoryConflict).
	WithTextCode(TextCodeStampMismatch).
	WithCode(goerrors.CodeConflict)

// storeUnavailable wraps a driver error so callers can match it by text code
func storeUnavailable(err error, msg string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeStoreUnavailable)
}

// IsStoreUnavailable reports whether err is an infrastructure failure of the store
func IsStoreUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if goerrors.Is(err, ErrStoreUnavailable) {
		return true
	}

	return hasTextCode(err, TextCodeStoreUnavailable)
}

// IsAccountNotFound reports whether err means the account does not exist
func IsAccountNotFound(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrAccountNotFound) || hasTextCode(err, TextCodeAccountNotFound)
}

// IsDuplicateEmail reports whether err means the email is already registered
func IsDuplicateEmail(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrDuplicateEmail) || hasTextCode(err, TextCodeDuplicateEmail)
}

// IsSecurityStampMismatch reports whether err means a concurrent change won
func IsSecurityStampMismatch(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrSecurityStampMismatch) || hasTextCode(err, TextCodeStampMismatch)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

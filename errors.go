package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrUserNotFound is returned by a UserStore when no user matches
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND")

// ErrMissingSecret is returned when no signing secret is configured
var ErrMissingSecret = goerrors.New("signing secret is not configured", goerrors.CategoryInternal).
	WithTextCode("MISSING_SECRET")

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail signature or format checks
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED")

// ErrMissingSubject is returned for verified tokens without a subject identifier
var ErrMissingSubject = goerrors.New("token has no subject identifier", goerrors.CategoryAuth).
	WithTextCode("MISSING_SUBJECT")

// ErrNoEmptyString password must not be empty
var ErrNoEmptyString = goerrors.New("password can't be an empty string", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrPasswordTooLong password exceeds the bcrypt input limit
var ErrPasswordTooLong = goerrors.New("password is longer than 72 bytes", goerrors.CategoryValidation).
	WithTextCode("PASSWORD_TOO_LONG")

// ErrMismatchedHashAndPassword password does not match hash
var ErrMismatchedHashAndPassword = goerrors.New("password mismatch", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// FailureKind enumerates the ways authentication can fail.
type FailureKind int

const (
	FailureMissingToken FailureKind = iota + 1
	FailureMisconfigured
	FailureInvalidToken
	FailureExpiredToken
	FailureUserNotFound
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureMissingToken:
		return "missing_token"
	case FailureMisconfigured:
		return "misconfigured"
	case FailureInvalidToken:
		return "invalid_token"
	case FailureExpiredToken:
		return "expired_token"
	case FailureUserNotFound:
		return "user_not_found"
	case FailureInternal:
		return "internal"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Status is the HTTP status reported for the failure.
func (k FailureKind) Status() int {
	switch k {
	case FailureMissingToken, FailureInvalidToken, FailureExpiredToken, FailureUserNotFound:
		return http.StatusUnauthorized
	case FailureMisconfigured, FailureInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// TextCode is the machine readable code for the failure.
func (k FailureKind) TextCode() string {
	return strings.ToUpper(k.String())
}

// Category is the error category for the failure.
func (k FailureKind) Category() goerrors.Category {
	if k.Status() == http.StatusUnauthorized {
		return goerrors.CategoryAuth
	}
	return goerrors.CategoryInternal
}

// Label is the envelope category for the failure.
func (k FailureKind) Label() string {
	if k.Status() == http.StatusUnauthorized {
		return "Unauthorized"
	}
	return "Internal Server Error"
}

// Message is the client facing message for the failure. It never contains
// internal error text.
func (k FailureKind) Message() string {
	switch k {
	case FailureMissingToken:
		return "No token provided"
	case FailureMisconfigured:
		return "Server configuration error"
	case FailureInvalidToken:
		return "Invalid token"
	case FailureExpiredToken:
		return "Token expired"
	case FailureUserNotFound:
		return "User not found"
	default:
		return "Authentication failed"
	}
}

// AuthError is the failure side of Authenticator.Authenticate.
type AuthError struct {
	Kind FailureKind
	Err  error
}

// NewAuthError creates an AuthError of the given kind
func NewAuthError(kind FailureKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the failure
func (e *AuthError) Status() int { return e.Kind.Status() }

// Label returns the envelope category for the failure
func (e *AuthError) Label() string { return e.Kind.Label() }

// Message returns the client facing message for the failure
func (e *AuthError) Message() string { return e.Kind.Message() }

// RichError converts the failure into a *goerrors.Error carrying the
// status code, text code and client message. The envelope label travels
// in the "label" metadata entry.
func (e *AuthError) RichError() *goerrors.Error {
	return goerrors.Wrap(e.Err, e.Kind.Category(), e.Kind.Message()).
		WithCode(e.Kind.Status()).
		WithTextCode(e.Kind.TextCode()).
		WithMetadata(map[string]any{"label": e.Kind.Label()})
}

// FailureKindOf extracts the FailureKind from err. Errors that are not
// AuthErrors are reported as FailureInternal.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return 0
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return FailureInternal
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return FailureKindOf(err) == FailureExpiredToken || errors.Is(err, ErrTokenExpired)
}

// IsMalformedError will check for tokens that failed verification
func IsMalformedError(err error) bool {
	return FailureKindOf(err) == FailureInvalidToken || errors.Is(err, ErrTokenMalformed)
}

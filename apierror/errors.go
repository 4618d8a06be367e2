// Package apierror normalizes errors escaping route handlers into a single
// JSON envelope.
//
// Every thrown value is classified once into a closed set of kinds, each
// with a fixed status code and label:
//
//	validation   400 Validation Error       (details per violated rule)
//	conflict     409 Conflict               (unique constraint)
//	not_found    404 Not Found              (missing record on write)
//	bad_request  400 Bad Request            (foreign key)
//	database     500 Database Error         (other persistence errors)
//	app          code of the goerrors.Error (label metadata or App Error)
//	internal     500 Internal Server Error  (anything else)
//
// Application errors are *goerrors.Error values. An explicit Code makes
// an error an app error; without one its Category decides the kind.
package apierror

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// MetadataLabel is the goerrors metadata key holding the envelope label
const MetadataLabel = "label"

// Envelope is the JSON body of every error response
type Envelope struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes one violated validation rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violation is a validation failure located by its path into the input
type Violation struct {
	Path    []string
	Message string
}

// Field joins the path with dots
func (v Violation) Field() string {
	return strings.Join(v.Path, ".")
}

// NewValidationError creates a validation *goerrors.Error with one field
// error per violation
func NewValidationError(violations ...Violation) *goerrors.Error {
	fields := make([]goerrors.FieldError, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, goerrors.FieldError{Field: v.Field(), Message: v.Message})
	}
	return goerrors.NewValidation(msgValidation, fields...).
		WithTextCode("VALIDATION_ERROR")
}

// NewAppError creates an application error carrying an explicit status
// code. The label defaults to App Error.
func NewAppError(status int, message string) *goerrors.Error {
	return goerrors.New(message, goerrors.HTTPStatusToCategory(status)).
		WithCode(status).
		WithTextCode(goerrors.HTTPStatusToTextCode(status))
}

// WrapAppError is NewAppError recording cause as the source
func WrapAppError(cause error, status int, message string) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.HTTPStatusToCategory(status), message).
		WithCode(status).
		WithTextCode(goerrors.HTTPStatusToTextCode(status))
}

// WithLabel sets the envelope label of err
func WithLabel(err *goerrors.Error, label string) *goerrors.Error {
	return err.WithMetadata(map[string]any{MetadataLabel: label})
}

// RichError is implemented by errors that convert themselves into a
// *goerrors.Error, such as auth.AuthError.
type RichError interface {
	error
	RichError() *goerrors.Error
}

// Unauthorized is a 401 app error
func Unauthorized(message string) *goerrors.Error {
	return WithLabel(NewAppError(http.StatusUnauthorized, message), LabelUnauthorized)
}

// NotFound is a 404 app error
func NotFound(message string) *goerrors.Error {
	return WithLabel(NewAppError(http.StatusNotFound, message), LabelNotFound)
}

// BadRequest is a 400 app error wrapping cause
func BadRequest(cause error, message string) *goerrors.Error {
	return WithLabel(WrapAppError(cause, http.StatusBadRequest, message), LabelBadRequest)
}

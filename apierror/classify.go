package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-fitauth/persistence"
)

// Kind is the closed set of error categories the normalizer knows about
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindBadRequest
	KindDatabase
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindDatabase:
		return "database"
	case KindApp:
		return "app"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	LabelValidation   = "Validation Error"
	LabelConflict     = "Conflict"
	LabelNotFound     = "Not Found"
	LabelBadRequest   = "Bad Request"
	LabelDatabase     = "Database Error"
	LabelApp          = "App Error"
	LabelInternal     = "Internal Server Error"
	LabelUnauthorized = "Unauthorized"
	LabelForbidden    = "Forbidden"
)

const (
	msgValidation = "Invalid request data"
	msgConflict   = "A record with this value already exists"
	msgNotFound   = "The requested record was not found"
	msgBadRequest = "The request references a record that does not exist"
	msgDatabase   = "A database error occurred"
	msgInternal   = "Something went wrong"
)

// Problem is the classified form of an error
type Problem struct {
	Kind     Kind
	Status   int
	Label    string
	Message  string
	Details  []FieldError
	Category goerrors.Category
	TextCode string
	Cause    error
}

// Envelope renders the problem as a response body
func (p Problem) Envelope() Envelope {
	return Envelope{Error: p.Label, Message: p.Message, Details: p.Details}
}

// Classify maps err to a Problem. In production the message of internal
// errors is replaced with a generic string.
func Classify(err error, production bool) Problem {
	kind, detail := kindOf(err)
	p := Problem{
		Kind:     kind,
		Cause:    err,
		Category: detail.category,
		TextCode: detail.textCode,
	}

	switch kind {
	case KindValidation:
		p.Status = http.StatusBadRequest
		p.Label = LabelValidation
		p.Message = msgValidation
		p.Details = detail.details
	case KindConflict:
		p.Status = http.StatusConflict
		p.Label = LabelConflict
		p.Message = msgConflict
	case KindNotFound:
		p.Status = http.StatusNotFound
		p.Label = LabelNotFound
		p.Message = msgNotFound
	case KindBadRequest:
		p.Status = http.StatusBadRequest
		p.Label = LabelBadRequest
		p.Message = msgBadRequest
	case KindDatabase:
		p.Status = http.StatusInternalServerError
		p.Label = LabelDatabase
		p.Message = msgDatabase
	case KindApp:
		p.Status = detail.status
		p.Label = detail.label
		p.Message = detail.message
	case KindInternal:
		p.Status = http.StatusInternalServerError
		p.Label = LabelInternal
		p.Message = msgInternal
		if !production && err != nil {
			p.Message = err.Error()
		}
	}

	if p.Category == "" {
		p.Category = goerrors.HTTPStatusToCategory(p.Status)
	}
	if p.TextCode == "" {
		p.TextCode = goerrors.HTTPStatusToTextCode(p.Status)
	}

	return p
}

type classified struct {
	status   int
	label    string
	message  string
	details  []FieldError
	category goerrors.Category
	textCode string
}

func kindOf(err error) (Kind, classified) {
	if err == nil {
		return KindInternal, classified{}
	}

	// ozzo reports rule execution failures as internal errors, they are
	// not caused by the input
	var internalErr validation.InternalError
	if errors.As(err, &internalErr) {
		return KindInternal, classified{}
	}

	var rich RichError
	if errors.As(err, &rich) {
		if e := rich.RichError(); e != nil {
			err = e
		}
	}

	if e := find(err, func(e *goerrors.Error) bool {
		return e.Category == goerrors.CategoryValidation
	}); e != nil {
		return KindValidation, classified{
			details:  fieldDetails(e.ValidationErrors),
			category: e.Category,
			textCode: e.TextCode,
		}
	}

	var ozzoErrs validation.Errors
	if errors.As(err, &ozzoErrs) {
		return KindValidation, classified{details: violationDetails(FromValidationErrors(ozzoErrs))}
	}

	if persistence.IsPersistenceError(err) || persistence.IsNotFound(err) {
		switch {
		case persistence.IsNotFound(err):
			return KindNotFound, classified{}
		case persistence.ConstraintViolation(err) == persistence.ViolationUnique:
			return KindConflict, classified{}
		case persistence.ConstraintViolation(err) == persistence.ViolationForeignKey:
			return KindBadRequest, classified{}
		default:
			return KindDatabase, classified{}
		}
	}

	if e := find(err, func(e *goerrors.Error) bool { return e.Code != 0 }); e != nil {
		return KindApp, appDetail(e, e.Code)
	}

	if e := find(err, func(*goerrors.Error) bool { return true }); e != nil {
		switch e.Category {
		case goerrors.CategoryConflict:
			return KindConflict, classified{category: e.Category, textCode: e.TextCode}
		case goerrors.CategoryNotFound:
			return KindNotFound, classified{category: e.Category, textCode: e.TextCode}
		case goerrors.CategoryBadInput:
			return KindBadRequest, classified{category: e.Category, textCode: e.TextCode}
		case goerrors.CategoryAuth:
			return KindApp, appDetail(e, http.StatusUnauthorized)
		case goerrors.CategoryAuthz:
			return KindApp, appDetail(e, http.StatusForbidden)
		case goerrors.CategoryRateLimit:
			return KindApp, appDetail(e, http.StatusTooManyRequests)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return KindApp, classified{
			status:   fiberErr.Code,
			label:    http.StatusText(fiberErr.Code),
			message:  fiberErr.Message,
			category: goerrors.HTTPStatusToCategory(fiberErr.Code),
		}
	}

	return KindInternal, classified{}
}

// find returns the first *goerrors.Error in the chain accepted by match
func find(err error, match func(*goerrors.Error) bool) *goerrors.Error {
	for err != nil {
		switch e := err.(type) {
		case *goerrors.Error:
			if match(e) {
				return e
			}
		case *goerrors.RetryableError:
			if e.BaseError != nil && match(e.BaseError) {
				return e.BaseError
			}
		}

		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if found := find(inner, match); found != nil {
					return found
				}
			}
			return nil
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return nil
		}
	}
	return nil
}

func appDetail(e *goerrors.Error, status int) classified {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	label, _ := e.Metadata[MetadataLabel].(string)
	if label == "" {
		switch status {
		case http.StatusUnauthorized:
			label = LabelUnauthorized
		case http.StatusForbidden:
			label = LabelForbidden
		default:
			label = LabelApp
		}
	}

	return classified{
		status:   status,
		label:    label,
		message:  e.Message,
		category: e.Category,
		textCode: e.TextCode,
	}
}

func fieldDetails(fields goerrors.ValidationErrors) []FieldError {
	if len(fields) == 0 {
		return nil
	}
	details := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		details = append(details, FieldError{Field: f.Field, Message: f.Message})
	}
	return details
}

func violationDetails(violations []Violation) []FieldError {
	if len(violations) == 0 {
		return nil
	}
	details := make([]FieldError, 0, len(violations))
	for _, v := range violations {
		details = append(details, FieldError{Field: v.Field(), Message: v.Message})
	}
	return details
}

// FromValidationErrors flattens ozzo validation errors into violations.
// Nested errors produce dotted paths, keys are visited in sorted order.
func FromValidationErrors(errs validation.Errors) []Violation {
	var out []Violation
	flatten(nil, errs, &out)
	return out
}

func flatten(prefix []string, errs validation.Errors, out *[]Violation) {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		err := errs[key]
		if err == nil {
			continue
		}

		path := append(append([]string(nil), prefix...), key)

		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(path, nested, out)
			continue
		}

		*out = append(*out, Violation{Path: path, Message: err.Error()})
	}
}

package persistence

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecordNotFound is returned when a read or write targets a missing row
var ErrRecordNotFound = errors.New("record not found")

// postgres SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Wrap annotates err with the operation that produced it. The result is a
// *goerrors.Error in one of the repository database categories.
// Missing records, including sql.ErrNoRows and the repository not found
// category, always match ErrRecordNotFound.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) && !errors.Is(err, ErrRecordNotFound) {
		err = fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	}

	category := repository.CategoryDatabase
	textCode := "DATABASE_ERROR"
	switch {
	case IsNotFound(err):
		category, textCode = repository.CategoryDatabaseNotFound, "RECORD_NOT_FOUND"
	case ConstraintViolation(err) == ViolationUnique:
		category, textCode = repository.CategoryDatabaseDuplicate, "DUPLICATE_KEY"
	case ConstraintViolation(err) == ViolationForeignKey:
		category, textCode = repository.CategoryDatabaseConstraint, "FOREIGN_KEY_VIOLATION"
	}

	return goerrors.Wrap(err, category, op).
		WithTextCode(textCode).
		WithMetadata(map[string]any{"operation": op})
}

// IsNotFound reports whether err signals a missing record
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, sql.ErrNoRows) ||
		repository.IsRecordNotFound(err) ||
		anyCategory(err, func(c goerrors.Category) bool {
			return c == repository.CategoryDatabaseNotFound
		})
}

// Violation is the kind of constraint an error violated
type Violation int

const (
	ViolationNone Violation = iota
	ViolationUnique
	ViolationForeignKey
)

// ConstraintViolation inspects err for unique and foreign key violations.
// It recognizes postgres SQLSTATE codes, sqlite messages and the categories
// set by Wrap or by the repository error mappers anywhere in the chain.
func ConstraintViolation(err error) Violation {
	if err == nil {
		return ViolationNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ViolationUnique
		case pgForeignKeyViolation:
			return ViolationForeignKey
		default:
			return ViolationNone
		}
	}

	if repository.IsDuplicatedKey(err) || anyCategory(err, func(c goerrors.Category) bool {
		return c == repository.CategoryDatabaseDuplicate
	}) {
		return ViolationUnique
	}

	if anyTextCode(err, "FOREIGN_KEY_VIOLATION") {
		return ViolationForeignKey
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ViolationUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ViolationForeignKey
	default:
		return ViolationNone
	}
}

// IsPersistenceError reports whether err originates in the persistence layer
func IsPersistenceError(err error) bool {
	if err == nil {
		return false
	}

	if anyCategory(err, isDatabaseCategory) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}

	return errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		ConstraintViolation(err) != ViolationNone
}

func isDatabaseCategory(c goerrors.Category) bool {
	return strings.HasPrefix(string(c), string(repository.CategoryDatabase))
}

// anyCategory walks the whole chain, wrappers in other categories do not
// hide a database error underneath them.
func anyCategory(err error, match func(goerrors.Category) bool) bool {
	found := false
	walk(err, func(e *goerrors.Error) bool {
		found = match(e.Category)
		return found
	})
	return found
}

func anyTextCode(err error, code string) bool {
	found := false
	walk(err, func(e *goerrors.Error) bool {
		found = e.TextCode == code
		return found
	})
	return found
}

func walk(err error, visit func(*goerrors.Error) bool) bool {
	if err == nil {
		return false
	}

	switch e := err.(type) {
	case *goerrors.Error:
		if visit(e) {
			return true
		}
	case *goerrors.RetryableError:
		if e.BaseError != nil && visit(e.BaseError) {
			return true
		}
	}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if walk(inner, visit) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	}
	return false
}

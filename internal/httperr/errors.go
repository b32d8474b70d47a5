// Package httperr maps domain and driver errors to HTTP problem responses.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/resource"
)

// Kind is the machine-readable problem category.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the request fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// Validation returns a ValidationError for a single field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// Add appends a field error.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns e if it holds any field error, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Problem is the JSON body of an error response.
type Problem struct {
	Kind      Kind         `json:"kind"`
	Status    int          `json:"status"`
	Message   string       `json:"message"`
	Fields    []FieldError `json:"fields,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// Classify maps err to a Problem. Unrecognized errors become a 500 whose
// message does not leak err.
func Classify(err error) Problem {
	var (
		ve *ValidationError
		us *resource.UnknownScopeError
	)
	switch {
	case errors.As(err, &ve):
		return Problem{Kind: KindValidation, Status: http.StatusBadRequest, Message: "invalid request", Fields: ve.Fields}
	case errors.As(err, &us):
		return Problem{Kind: KindValidation, Status: http.StatusBadRequest, Message: us.Error()}
	case errors.Is(err, orm.ErrNotFound):
		return Problem{Kind: KindNotFound, Status: http.StatusNotFound, Message: notFoundMessage(err)}
	case IsConstraintViolation(err):
		return Problem{Kind: KindConflict, Status: http.StatusConflict, Message: "constraint violation"}
	default:
		return Problem{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "internal server error"}
	}
}

func notFoundMessage(err error) string {
	var nf *resource.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var me *resource.MutationError
	if errors.As(err, &me) {
		return fmt.Sprintf("%s %d not found", me.Resource, me.ID)
	}
	return "not found"
}

// IsConstraintViolation reports whether err is an integrity constraint
// failure from one of the supported drivers.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1451, 1452:
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

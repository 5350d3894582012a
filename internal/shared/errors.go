package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed filter or query parameters.
	ErrValidation = errors.New("validation failed")
	// ErrDependency indicates a degraded aggregation source.
	ErrDependency = errors.New("dependency unavailable")
)

// Error codes form a closed taxonomy; internal error text never crosses the
// trust boundary, only these codes and their fixed messages do.
const (
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeDependencyDegraded = "dependency_degraded"
	CodeInternalError      = "internal_error"
)

// ValidationError carries the offending field for 400 responses.
type ValidationError struct {
	Field string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("invalid %s", v.Field)
}

func (v ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CodeFor maps an error to its public error code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidationFailed
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDependency):
		return CodeDependencyDegraded
	default:
		return CodeInternalError
	}
}

// StatusFor maps a public error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the fixed caller-facing message for a code.
func MessageFor(code string) string {
	switch code {
	case CodeValidationFailed:
		return "request parameters are invalid"
	case CodeNotFound:
		return "resource not found"
	case CodeDependencyDegraded:
		return "a data source is temporarily degraded"
	default:
		return "internal error"
	}
}

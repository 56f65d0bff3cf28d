package circulation

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeDuplicateLoan   Code = "DUPLICATE_LOAN"
	CodeLimitExceeded   Code = "LIMIT_EXCEEDED"
	CodeNotActive       Code = "NOT_ACTIVE"
	CodeNotRenewable    Code = "NOT_RENEWABLE"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError       { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrForbidden(msg string) *APIError     { return &APIError{Code: CodeForbidden, Message: msg} }
func ErrNotFound(msg string) *APIError      { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrUnavailable(msg string) *APIError   { return &APIError{Code: CodeUnavailable, Message: msg} }
func ErrDuplicateLoan(msg string) *APIError { return &APIError{Code: CodeDuplicateLoan, Message: msg} }
func ErrLimitExceeded(msg string) *APIError { return &APIError{Code: CodeLimitExceeded, Message: msg} }
func ErrNotActive(msg string) *APIError     { return &APIError{Code: CodeNotActive, Message: msg} }
func ErrNotRenewable(msg string) *APIError  { return &APIError{Code: CodeNotRenewable, Message: msg} }
func ErrConflict(msg string) *APIError      { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError      { return &APIError{Code: CodeInternal, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeForbidden:
			return 403
		case CodeNotFound:
			return 404
		case CodeUnavailable, CodeDuplicateLoan, CodeNotActive, CodeNotRenewable, CodeConflict:
			return 409
		case CodeLimitExceeded:
			return 422
		default:
			return 500
		}
	}
	return 500
}

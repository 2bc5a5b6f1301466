// Package apperror defines the failures the engine reports to callers.
// Every error a service returns either is an *AppError or wraps one; the
// HTTP layer renders it as an RFC 7807 problem document.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicate         = "DUPLICATE_ENTRY"
	CodeConflict          = "CONFLICT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError carries a machine-readable code, a message safe to show an
// operator and optional structured details.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`

	// Err is logged, never rendered.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail sets a detail field and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 2)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func build(code string, status int, message string, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidation(message string) *AppError {
	return build(CodeValidation, http.StatusBadRequest, message, nil)
}

// NewRequired reports a missing mandatory field.
func NewRequired(field string) *AppError {
	return build(CodeValidation, http.StatusBadRequest, field+" is required",
		map[string]any{"field": field})
}

func NewNotFound(entity string, id any) *AppError {
	return build(CodeNotFound, http.StatusNotFound, entity+" not found",
		map[string]any{"entity": entity, "id": id})
}

// NewBusinessRule reports a domain rule violation under its own code.
func NewBusinessRule(code, message string) *AppError {
	return build(code, http.StatusUnprocessableEntity, message, nil)
}

// NewInsufficientFunds reports a payment larger than the account balance.
// Amounts travel as decimal strings.
func NewInsufficientFunds(accountID, requested, available string) *AppError {
	return build(CodeInsufficientFunds, http.StatusUnprocessableEntity, "Insufficient funds in account",
		map[string]any{"account_id": accountID, "requested": requested, "available": available})
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return build(CodeInternal, http.StatusInternalServerError, "Internal server error", nil).WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return build(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

func NewForbidden(message string) *AppError {
	return build(CodeForbidden, http.StatusForbidden, message, nil)
}

// NewConflict reports a write the current state of the store refuses,
// such as deleting a row that others still reference.
func NewConflict(message string) *AppError {
	return build(CodeConflict, http.StatusConflict, message, nil)
}

// NewDuplicate reports a unique key collision.
func NewDuplicate(entity, field, value string) *AppError {
	return build(CodeDuplicate, http.StatusConflict,
		fmt.Sprintf("%s with this %s already exists", entity, field),
		map[string]any{"entity": entity, "field": field, "value": value})
}

// IsAppError reports whether err's chain holds an *AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError returns the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetHTTPStatus maps err to a response status; errors that are not
// AppErrors are 500.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool          { return HasCode(err, CodeNotFound) }
func IsValidation(err error) bool        { return HasCode(err, CodeValidation) }
func IsDuplicate(err error) bool         { return HasCode(err, CodeDuplicate) }
func IsInsufficientFunds(err error) bool { return HasCode(err, CodeInsufficientFunds) }

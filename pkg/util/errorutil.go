package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the service.
const (
	CodeInvalidToken           = "INVALID_TOKEN"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeTenantMismatch         = "TENANT_MISMATCH"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeDeliveryFailed         = "DELIVERY_FAILED"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	CodeForbidden              = "FORBIDDEN"
	CodeNotFound               = "NOT_FOUND"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewAuthError builds a connection-fatal authentication error. The code must
// be one of CodeInvalidToken, CodeTokenExpired, CodeUserNotFound or
// CodeTenantMismatch.
func NewAuthError(code, message string) error {
	return NewDomainError(code, message, http.StatusUnauthorized, nil)
}

// IsAuthError reports whether err carries one of the authentication codes.
func IsAuthError(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	switch domainErr.Code {
	case CodeInvalidToken, CodeTokenExpired, CodeUserNotFound, CodeTenantMismatch:
		return true
	}
	return false
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeInvalidToken, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewRateLimited signals a dropped inbound event. Non-fatal: the connection
// stays open and only the offending event is discarded.
func NewRateLimited(connID string) error {
	return NewDomainError(CodeRateLimitExceeded, "event rate limit exceeded",
		http.StatusTooManyRequests, map[string]any{"connection_id": connID})
}

// NewPersistenceUnavailable wraps a failed read against the persistence
// collaborator. The caller retries on its next natural trigger.
func NewPersistenceUnavailable(err error) error {
	return &DomainError{
		Code:       CodePersistenceUnavailable,
		Message:    "persistence collaborator unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a business rule violation with a stable,
// machine-readable code. Handlers translate codes to HTTP statuses.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Infrastructure sentinels. Business-rule violations carry a *DomainError
// with a stable code instead; these cover outcomes repositories and
// gateway adapters report.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInvalidSignature    = errors.New("invalid payment signature")
)

// IsDomainError checks whether err carries a DomainError and returns it.
func IsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

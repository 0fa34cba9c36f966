package errors

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrCounterpartyNotFound = errors.New("counterparty not found")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNotAnAgent           = errors.New("account is not an agent account")

	// Operation errors
	ErrInvalidPIN              = errors.New("invalid transaction pin")
	ErrSelfTransfer            = errors.New("cannot transfer to own account")
	ErrSelfRequest             = errors.New("cannot request money from own account")
	ErrDuplicateAttempt        = errors.New("duplicate attempt detected")
	ErrInsufficientFundsForFee = errors.New("insufficient funds to cover fee")
	ErrInvalidAmount           = errors.New("invalid amount")

	// Money request errors
	ErrRequestNotFound = errors.New("money request not found")
	ErrNotAuthorized   = errors.New("not authorized for this request")
	ErrAlreadyResolved = errors.New("money request already resolved")
	ErrRequestExpired  = errors.New("money request has expired")

	// Not-found and access-denied on the detail read are deliberately the
	// same error so callers cannot probe for other users' entries.
	ErrEntryNotFound = errors.New("ledger entry not found")

	ErrNotificationNotFound = errors.New("notification not found")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
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

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

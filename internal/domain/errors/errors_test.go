package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "transfer_failed",
				Message: "transfer could not be completed",
				Err:     errors.New("balance write failed"),
			},
			expected: "transfer could not be completed: balance write failed",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "account_exists",
				Message: "account already exists for owner",
				Err:     nil,
			},
			expected: "account already exists for owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	domainErr := &DomainError{
		Code:    "test",
		Message: "test message",
		Err:     originalErr,
	}

	assert.Equal(t, originalErr, domainErr.Unwrap())
}

func TestNewDomainError(t *testing.T) {
	originalErr := errors.New("underlying error")
	err := NewDomainError("test_code", "test message", originalErr)

	assert.NotNil(t, err)
	assert.Equal(t, "test_code", err.Code)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, originalErr, err.Err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:   "amount",
		Message: "must be greater than 0",
	}

	expected := "validation failed for field amount: must be greater than 0"
	assert.Equal(t, expected, err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("phone", "cannot be empty")

	assert.NotNil(t, err)
	assert.Equal(t, "phone", err.Field)
	assert.Equal(t, "cannot be empty", err.Message)
}

func TestErrorUnwrapping(t *testing.T) {
	baseErr := ErrInsufficientFunds
	wrappedErr := NewDomainError("debit_failed", "could not debit wallet", baseErr)

	assert.True(t, errors.Is(wrappedErr, baseErr))
	assert.ErrorIs(t, wrappedErr, ErrInsufficientFunds)
}

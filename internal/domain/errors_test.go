// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"testing"
)

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "ErrServiceUnavailable",
			err:      ErrServiceUnavailable,
			expected: "service unavailable",
		},
		{
			name:     "ErrValidationFailed",
			err:      ErrValidationFailed,
			expected: "validation failed",
		},
		{
			name:     "ErrInternal",
			err:      ErrInternal,
			expected: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected error message %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	errorVars := []error{
		ErrServiceUnavailable,
		ErrValidationFailed,
		ErrInternal,
	}

	for i, err1 := range errorVars {
		for j, err2 := range errorVars {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v are considered equal", err1, err2)
			}
		}
	}
}

func TestDomainErrorWrapping(t *testing.T) {
	underlying := errors.New("backend timeout")
	err := NewInternalError("could not fetch events", underlying)

	if err.Error() != "could not fetch events: backend timeout" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("wrapped error should satisfy errors.Is on the underlying error")
	}
	if GetErrorType(err) != ErrorTypeInternal {
		t.Errorf("expected internal error type, got %v", GetErrorType(err))
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{
			name:     "validation error",
			err:      NewValidationError("bad input"),
			expected: ErrorTypeValidation,
		},
		{
			name:     "not found error",
			err:      NewNotFoundError("no such slot"),
			expected: ErrorTypeNotFound,
		},
		{
			name:     "conflict error",
			err:      NewConflictError("slot already taken"),
			expected: ErrorTypeConflict,
		},
		{
			name:     "unavailable error",
			err:      NewUnavailableError("not initialized"),
			expected: ErrorTypeUnavailable,
		},
		{
			name:     "plain error falls back to internal",
			err:      errors.New("anything"),
			expected: ErrorTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorType(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a message that is safe to show to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

// Duplicate names an existing claim that a new one collides with.
type Duplicate struct {
	Index            int    `json:"index"`
	VehicleNumber    string `json:"vehicleNumber"`
	ExistingRefundID string `json:"existingRefundId"`
}

// DuplicateError rejects a submission whose fingerprint matches a live
// claim. Resubmitting with force bypasses the check.
type DuplicateError struct {
	Duplicates []Duplicate
}

func (e *DuplicateError) Error() string {
	if len(e.Duplicates) == 1 {
		return "a refund with the same vehicle, company, method and amount already exists"
	}
	return fmt.Sprintf("%d refunds may duplicate existing claims", len(e.Duplicates))
}

func (e *DuplicateError) Unwrap() error { return ErrConflict }

// FailedItem is one rejected line of a batch submission.
type FailedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchError reports that a batch was rolled back because some items
// failed.
type BatchError struct {
	Failed []FailedItem
}

func (e *BatchError) Error() string {
	return "some items failed, the whole batch was cancelled"
}

func (e *BatchError) Unwrap() error { return ErrInvalidInput }

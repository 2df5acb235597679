// Package errors defines the error taxonomy used throughout go-umi.
//
// The Error type carries a stable code so callers can branch on the failure
// category with errors.Is, while the message and cause keep the detail.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for go-umi.
const (
	ErrCodeInvalidKeyMaterial   = "INVALID_KEY_MATERIAL"
	ErrCodeInvalidSeeds         = "INVALID_SEEDS"
	ErrCodeNoValidBumpFound     = "NO_VALID_BUMP_FOUND"
	ErrCodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	ErrCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	ErrCodeNetworkFailure       = "NETWORK_FAILURE"
	ErrCodeSimulationFailure    = "SIMULATION_FAILURE"
	ErrCodeProgramError         = "PROGRAM_ERROR"
	ErrCodeTransactionFailed    = "TRANSACTION_FAILED"
	ErrCodeExpired              = "EXPIRED"
	ErrCodeConfirmationTimeout  = "CONFIRMATION_TIMEOUT"
	ErrCodePollAbandoned        = "POLL_ABANDONED"
	ErrCodeInvalidStrategy      = "INVALID_STRATEGY"
	ErrCodeSerializationFailed  = "SERIALIZATION_FAILED"
	ErrCodeMissingSigner        = "MISSING_SIGNER"
	ErrCodeMissingMeta          = "MISSING_META"
	ErrCodeAmountOverflow       = "AMOUNT_OVERFLOW"
	ErrCodeInvalidConfig        = "INVALID_CONFIG"
	ErrCodeJournalFailure       = "JOURNAL_FAILURE"
)

// Error represents an error in go-umi.
type Error struct {
	// Code is a unique error code for this error type.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetails returns a copy of the error with the given details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Pre-defined errors, usable as errors.Is targets.
var (
	ErrInvalidKeyMaterial   = NewError(ErrCodeInvalidKeyMaterial, "invalid key material")
	ErrInvalidSeeds         = NewError(ErrCodeInvalidSeeds, "invalid seeds")
	ErrNoValidBumpFound     = NewError(ErrCodeNoValidBumpFound, "unable to find a viable program address bump seed")
	ErrUnsupportedOperation = NewError(ErrCodeUnsupportedOperation, "unsupported operation")
	ErrAccountNotFound      = NewError(ErrCodeAccountNotFound, "account not found")
	ErrNetworkFailure       = NewError(ErrCodeNetworkFailure, "network failure")
	ErrSimulationFailure    = NewError(ErrCodeSimulationFailure, "transaction simulation failed")
	ErrProgramError         = NewError(ErrCodeProgramError, "program error")
	ErrTransactionFailed    = NewError(ErrCodeTransactionFailed, "transaction failed")
	ErrExpired              = NewError(ErrCodeExpired, "transaction expired before it was confirmed")
	ErrConfirmationTimeout  = NewError(ErrCodeConfirmationTimeout, "timed out waiting for confirmation")
	ErrPollAbandoned        = NewError(ErrCodePollAbandoned, "confirmation poll abandoned")
	ErrInvalidStrategy      = NewError(ErrCodeInvalidStrategy, "invalid confirmation strategy")
	ErrSerializationFailed  = NewError(ErrCodeSerializationFailed, "serialization failed")
	ErrMissingSigner        = NewError(ErrCodeMissingSigner, "missing required signer")
	ErrMissingMeta          = NewError(ErrCodeMissingMeta, "transaction meta is missing")
	ErrAmountOverflow       = NewError(ErrCodeAmountOverflow, "amount overflow")
	ErrInvalidConfig        = NewError(ErrCodeInvalidConfig, "invalid configuration")
	ErrJournalFailure       = NewError(ErrCodeJournalFailure, "journal failure")
)

// InvalidKeyMaterial creates an error for malformed secrets and seeds.
func InvalidKeyMaterial(reason string) *Error {
	return NewError(ErrCodeInvalidKeyMaterial, fmt.Sprintf("invalid key material: %s", reason))
}

// InvalidSeeds creates an error for seeds the ledger would reject.
func InvalidSeeds(reason string) *Error {
	return NewError(ErrCodeInvalidSeeds, fmt.Sprintf("invalid seeds: %s", reason))
}

// UnsupportedOperation creates an error for operations this runtime cannot perform.
func UnsupportedOperation(op string) *Error {
	return NewError(ErrCodeUnsupportedOperation, fmt.Sprintf("unsupported operation: %s", op))
}

// NetworkFailure creates an error for a failed ledger request.
func NetworkFailure(method string, cause error) *Error {
	return NewError(ErrCodeNetworkFailure, fmt.Sprintf("%s request failed", method)).WithCause(cause)
}

// SerializationFailed creates an error for encoding and decoding failures.
func SerializationFailed(what string, cause error) *Error {
	return NewError(ErrCodeSerializationFailed, fmt.Sprintf("failed to serialize %s", what)).WithCause(cause)
}

// MissingSigner creates an error naming the signer that could not be found.
func MissingSigner(pubkey string) *Error {
	return NewError(ErrCodeMissingSigner, fmt.Sprintf("missing signer for %s", pubkey))
}

// InvalidConfig creates an error for a rejected configuration value.
func InvalidConfig(reason string) *Error {
	return NewError(ErrCodeInvalidConfig, reason)
}

// JournalFailure creates an error for submission journal failures.
func JournalFailure(what string, cause error) *Error {
	return NewError(ErrCodeJournalFailure, fmt.Sprintf("failed to %s", what)).WithCause(cause)
}

// IsRetryable reports whether the caller may retry the operation that
// returned err. Expired transactions are only retryable after rebuilding
// them against a fresh blockhash.
func IsRetryable(err error) bool {
	return Is(err, ErrNetworkFailure) ||
		Is(err, ErrConfirmationTimeout) ||
		Is(err, ErrPollAbandoned) ||
		Is(err, ErrExpired)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

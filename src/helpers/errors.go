package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type CoinControlError struct {
	Message string
	Cause   error
}

func (e *CoinControlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CoinControlError) Unwrap() error {
	return e.Cause
}

// Distinct error types per failure class. Callers branch with errors.As.
type AuthenticationFailedError struct{ CoinControlError } // bad credentials, user-correctable
type InvalidCredentialError struct{ CoinControlError }    // expired/corrupt token, demotes to anonymous
type BackendUnavailableError struct{ CoinControlError }   // network/transport, retryable
type DataUnavailableError struct{ CoinControlError }      // price/icon fetch failure, degrade in place

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewAuthenticationFailed(msg string, cause error) error {
	return &AuthenticationFailedError{CoinControlError{Message: msg, Cause: cause}}
}

func NewInvalidCredential(msg string, cause error) error {
	return &InvalidCredentialError{CoinControlError{Message: msg, Cause: cause}}
}

func NewBackendUnavailable(msg string, cause error) error {
	return &BackendUnavailableError{CoinControlError{Message: msg, Cause: cause}}
}

func NewDataUnavailable(msg string, cause error) error {
	return &DataUnavailableError{CoinControlError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

func IsAuthenticationFailed(err error) bool {
	var e *AuthenticationFailedError
	return errors.As(err, &e)
}

func IsInvalidCredential(err error) bool {
	var e *InvalidCredentialError
	return errors.As(err, &e)
}

func IsBackendUnavailable(err error) bool {
	var e *BackendUnavailableError
	return errors.As(err, &e)
}

func IsDataUnavailable(err error) bool {
	var e *DataUnavailableError
	return errors.As(err, &e)
}

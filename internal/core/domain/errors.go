package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a stable error code.
//
// Message is the human-readable text sent to clients; Code is for logs
// and metrics.
type DomainError struct {
	Code    string // Error code (e.g., "KV-STORE-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Text returns the message shown to clients, without the code.
func (e *DomainError) Text() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ClientMessage returns the text a client sees for err.
func ClientMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Text()
	}
	return err.Error()
}

// ============================================================================
// Store Errors (STORE)
// ============================================================================

var (
	// ErrKeyNotFound indicates the key does not exist.
	ErrKeyNotFound = NewDomainError("KV-STORE-4040", "no such key")

	// ErrWrongType indicates the key holds a different kind of value.
	ErrWrongType = NewDomainError("KV-STORE-4000", "operation against a key holding the wrong kind of value")

	// ErrNotInteger indicates the value or argument is not a 64-bit integer.
	ErrNotInteger = NewDomainError("KV-STORE-4001", "value is not an integer or out of range")

	// ErrKeyExists indicates the destination key is already present.
	ErrKeyExists = NewDomainError("KV-STORE-4090", "key already exists")

	// ErrNoMatch indicates a key listing matched nothing.
	ErrNoMatch = NewDomainError("KV-STORE-4041", "no matching keys")

	// ErrIndexOutOfRange indicates a list index outside the list.
	ErrIndexOutOfRange = NewDomainError("KV-STORE-4160", "index out of range")

	// ErrWrongArity indicates the wrong number of parameters.
	ErrWrongArity = NewDomainError("KV-STORE-4002", "number of parameters incorrect")
)

// ============================================================================
// Protocol Errors (PROTO)
// ============================================================================

var (
	// ErrEmptyInput indicates a request with no tokens.
	ErrEmptyInput = NewDomainError("KV-PROTO-4000", "empty input")

	// ErrNonUTF8 indicates request bytes that are not valid UTF-8.
	ErrNonUTF8 = NewDomainError("KV-PROTO-4001", "input is not valid utf-8")

	// ErrInvalidCommand indicates an unknown verb or wrong arity.
	ErrInvalidCommand = NewDomainError("KV-PROTO-4002", "invalid command")

	// ErrIO indicates a socket read or write failure.
	ErrIO = NewDomainError("KV-PROTO-5000", "i/o error")
)

// ============================================================================
// Server Errors (SRV)
// ============================================================================

var (
	// ErrInvalidArgument indicates an argument with an unacceptable value.
	ErrInvalidArgument = NewDomainError("KV-SRV-4000", "invalid argument")

	// ErrRateLimited indicates the connection exceeded its command rate.
	ErrRateLimited = NewDomainError("KV-SRV-4290", "rate limit exceeded")

	// ErrConfigKeyNotFound indicates an unknown config key.
	ErrConfigKeyNotFound = NewDomainError("KV-SRV-4040", "no such config key")

	// ErrReservedChannel indicates a channel only the server may use.
	ErrReservedChannel = NewDomainError("KV-SRV-4030", "channel is reserved")
)

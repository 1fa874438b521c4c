package seltra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
)

// Reason classifies a translation failure.
type Reason string

const (
	// ReasonEmptyInput means no text was supplied.
	ReasonEmptyInput Reason = "EMPTY_INPUT"
	// ReasonUnsupportedPair means the backend does not recognize the language pair.
	ReasonUnsupportedPair Reason = "UNSUPPORTED_PAIR"
	// ReasonTimeout means a subprocess or network call exceeded its timeout.
	ReasonTimeout Reason = "TIMEOUT"
	// ReasonToolUnavailable means a required executable was not found.
	ReasonToolUnavailable Reason = "TOOL_UNAVAILABLE"
	// ReasonNetworkError means the remote service could not be reached.
	ReasonNetworkError Reason = "NETWORK_ERROR"
	// ReasonServiceError means the remote service answered with a non-2xx status.
	ReasonServiceError Reason = "SERVICE_ERROR"
	// ReasonParseError means the response could not be decoded.
	ReasonParseError Reason = "PARSE_ERROR"
	// ReasonUnknownProvider means a provider name is not registered.
	ReasonUnknownProvider Reason = "UNKNOWN_PROVIDER"
	// ReasonUnexpected is the catch-all.
	ReasonUnexpected Reason = "UNEXPECTED"
)

// TranslationError is the error type every backend returns.
type TranslationError struct {
	Reason    Reason
	Message   string
	Cause     error
	Retryable bool // Whether a caller-level retry may succeed
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// NewError creates a TranslationError. TIMEOUT and NETWORK_ERROR are retryable.
func NewError(reason Reason, message string, cause error) *TranslationError {
	return &TranslationError{
		Reason:    reason,
		Message:   message,
		Cause:     cause,
		Retryable: reason == ReasonTimeout || reason == ReasonNetworkError,
	}
}

// ErrUnknownProvider is returned when a provider name is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ReasonOf classifies any error into a Reason.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}

	var te *TranslationError
	if errors.As(err, &te) {
		return te.Reason
	}

	switch {
	case errors.Is(err, ErrUnknownProvider):
		return ReasonUnknownProvider
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, exec.ErrNotFound):
		return ReasonToolUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonNetworkError
	}

	return ReasonUnexpected
}

// Classify wraps err in a TranslationError unless it already is one.
func Classify(err error, message string) *TranslationError {
	if err == nil {
		return nil
	}
	var te *TranslationError
	if errors.As(err, &te) {
		return te
	}
	return NewError(ReasonOf(err), message, err)
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

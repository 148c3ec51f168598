package twitter

import "fmt"

// ErrorType classifies API errors so callers can tell fatal conditions
// (auth, protocol) from retryable ones (network, server).
type ErrorType string

const (
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeAuth      ErrorType = "auth"
	// ErrorTypeProtocol means the response shape did not match what we
	// expect. This signals an upstream API contract change, not a condition
	// that retrying can fix.
	ErrorTypeProtocol ErrorType = "protocol"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeServer   ErrorType = "server"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents an API error with type information.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("twitter %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServer:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeProtocol:
		return false
	default:
		return false
	}
}

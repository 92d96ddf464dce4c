package carrier

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of carrier error classifications.
type ErrorKind string

const (
	// ErrorAuthFailed means the credential exchange itself was rejected.
	ErrorAuthFailed ErrorKind = "AUTH_FAILED"
	// ErrorAuthTokenExpired means a token was rejected downstream and
	// the refresh-retry cycle did not recover.
	ErrorAuthTokenExpired ErrorKind = "AUTH_TOKEN_EXPIRED"
	// ErrorNetwork is a transport-level failure other than a timeout.
	ErrorNetwork ErrorKind = "NETWORK_ERROR"
	// ErrorTimeout means an outbound call exceeded its deadline.
	ErrorTimeout ErrorKind = "TIMEOUT"
	// ErrorRateLimited maps HTTP 429 from the carrier.
	ErrorRateLimited ErrorKind = "RATE_LIMITED"
	// ErrorBadRequest means the carrier rejected the request payload.
	ErrorBadRequest ErrorKind = "BAD_REQUEST"
	// ErrorCarrier is any other non-2xx carrier response.
	ErrorCarrier ErrorKind = "CARRIER_ERROR"
	// ErrorValidation means the request never left the process.
	ErrorValidation ErrorKind = "VALIDATION_ERROR"
)

// Error is a classified carrier failure. Every failure path in this
// module terminates in exactly one Error; retryability is decided by the
// constructor for each kind so callers implementing backoff can branch
// on the flag without knowing which call site raised it.
type Error struct {
	Kind        ErrorKind
	Message     string
	StatusCode  int    // HTTP status when one was observed, else 0
	CarrierCode string // carrier-native error code when present
	Retryable   bool
	Cause       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind, so errors.Is(err, &carrier.Error{Kind: ...}) works
// regardless of message or status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewAuthFailed reports a rejected or malformed credential exchange.
func NewAuthFailed(message string, cause error) *Error {
	return &Error{Kind: ErrorAuthFailed, Message: message, Cause: cause}
}

// NewAuthTokenExpired reports an unrecoverable 401 after refresh.
func NewAuthTokenExpired(message string) *Error {
	return &Error{Kind: ErrorAuthTokenExpired, Message: message, Retryable: true}
}

// NewNetworkError reports a transport failure.
func NewNetworkError(message string, cause error) *Error {
	return &Error{Kind: ErrorNetwork, Message: message, Retryable: true, Cause: cause}
}

// NewTimeout reports an aborted outbound call.
func NewTimeout(message string) *Error {
	return &Error{Kind: ErrorTimeout, Message: message, Retryable: true}
}

// NewRateLimited reports HTTP 429 from the carrier.
func NewRateLimited(message string, statusCode int) *Error {
	return &Error{Kind: ErrorRateLimited, Message: message, StatusCode: statusCode, Retryable: true}
}

// NewBadRequest reports a request the carrier rejected as invalid.
func NewBadRequest(message string, statusCode int, carrierCode string) *Error {
	return &Error{Kind: ErrorBadRequest, Message: message, StatusCode: statusCode, CarrierCode: carrierCode}
}

// NewCarrierError reports any other carrier-side failure. Retryable only
// for server-side (5xx) statuses.
func NewCarrierError(message string, statusCode int, carrierCode string) *Error {
	return &Error{
		Kind:        ErrorCarrier,
		Message:     message,
		StatusCode:  statusCode,
		CarrierCode: carrierCode,
		Retryable:   statusCode >= 500,
	}
}

// NewValidationError reports a request that failed schema validation or
// targeted an unsupported carrier.
func NewValidationError(message string) *Error {
	return &Error{Kind: ErrorValidation, Message: message}
}

// IsRetryable reports whether a caller-level retry is expected to
// plausibly succeed. The flag is advisory; nothing in this module
// retries on its own beyond the single credential-refresh re-issue.
func IsRetryable(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Retryable
	}
	return false
}

// KindOf extracts the error kind, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for common provider failures.
var (
	// Context/Token errors
	ErrContextLengthExceeded = errors.New("context length exceeded")

	// Safety/Content errors
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// Rate limiting errors
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Model errors
	ErrInvalidModel = errors.New("invalid model")

	// Authentication errors
	ErrAuthentication   = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")

	// Network errors
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrorCode represents a provider error code.
type ErrorCode string

const (
	ErrorCodeContextLength  ErrorCode = "context_length_exceeded"
	ErrorCodeContentBlocked ErrorCode = "content_blocked"
	ErrorCodeRateLimit      ErrorCode = "rate_limit"
	ErrorCodeQuota          ErrorCode = "quota_exceeded"
	ErrorCodeInvalidModel   ErrorCode = "invalid_model"
	ErrorCodeAuth           ErrorCode = "authentication_failed"
	ErrorCodePermission     ErrorCode = "permission_denied"
	ErrorCodeNetwork        ErrorCode = "network_error"
	ErrorCodeTimeout        ErrorCode = "timeout"
	ErrorCodeUnavailable    ErrorCode = "service_unavailable"
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
)

var sentinelByCode = map[ErrorCode]error{
	ErrorCodeContextLength:  ErrContextLengthExceeded,
	ErrorCodeContentBlocked: ErrContentBlocked,
	ErrorCodeRateLimit:      ErrRateLimit,
	ErrorCodeQuota:          ErrQuotaExceeded,
	ErrorCodeInvalidModel:   ErrInvalidModel,
	ErrorCodeAuth:           ErrAuthentication,
	ErrorCodePermission:     ErrPermissionDenied,
	ErrorCodeNetwork:        ErrNetwork,
	ErrorCodeTimeout:        ErrTimeout,
	ErrorCodeUnavailable:    ErrServiceUnavailable,
	ErrorCodeInvalidRequest: ErrInvalidRequest,
}

// ProviderError wraps errors with additional context.
type ProviderError struct {
	Provider   string
	Code       ErrorCode
	Message    string
	Underlying error
	Retryable  bool
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	prefix := string(e.Code)
	if e.Provider != "" {
		prefix = e.Provider + ": " + prefix
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is the sentinel matching this error's code.
func (e *ProviderError) Is(target error) bool {
	return sentinelByCode[e.Code] == target
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// GetRetryAfter returns the retry-after duration if present.
func GetRetryAfter(err error) *time.Duration {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.RetryAfter
	}
	return nil
}

// FromStatus maps an HTTP status code reported by a vendor SDK to a ProviderError.
func FromStatus(provider string, status int, message string, err error) *ProviderError {
	pe := &ProviderError{Provider: provider, Underlying: err}
	switch {
	case status == http.StatusUnauthorized:
		pe.Code, pe.Message = ErrorCodeAuth, "authentication failed"
	case status == http.StatusForbidden:
		pe.Code, pe.Message = ErrorCodePermission, "permission denied"
	case status == http.StatusTooManyRequests:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeRateLimit, "rate limit exceeded", true
	case status == http.StatusNotFound:
		pe.Code, pe.Message = ErrorCodeInvalidModel, fmt.Sprintf("not found: %s", message)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeTimeout, "request timeout", true
	case status >= 400 && status < 500:
		pe.Code, pe.Message = ErrorCodeInvalidRequest, fmt.Sprintf("invalid request: %s", message)
	case status >= 500:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeUnavailable, "service unavailable", true
	default:
		pe.Code, pe.Message, pe.Retryable = ErrorCodeNetwork, "network error", true
	}
	return pe
}

// NetworkError wraps a transport-level failure that carried no status code.
func NetworkError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}

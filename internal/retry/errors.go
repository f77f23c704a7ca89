package retry

import (
	"errors"
	"fmt"
	"strings"
)

// TransientError marks an error that is worth retrying.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	Message    string // caller-facing message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as explicitly retryable.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError wraps err as explicitly non-retryable.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

var ratePatterns = []string{
	"rate limit",
	"rate_limit",
	"429",
	"quota",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
}

// IsRetryable is the default classifier. Only rate-limit and quota
// exhaustion are considered worth retrying; everything else, including
// authentication failures and malformed requests, propagates immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	lowerErr := strings.ToLower(err.Error())
	for _, pattern := range ratePatterns {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}

	return false
}

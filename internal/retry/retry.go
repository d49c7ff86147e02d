// Package retry provides bounded retry with exponential backoff and error
// classification, shared by LLM calls and cache disk writes.
package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrorType represents the classification of an error for retry purposes
type ErrorType int

const (
	// ErrorTypeRetryable indicates the error is transient and can be retried
	ErrorTypeRetryable ErrorType = iota
	// ErrorTypeNonRetryable indicates the error is permanent and should not be retried
	ErrorTypeNonRetryable
	// ErrorTypeUnknown indicates the error type is unknown (conservative: don't retry)
	ErrorTypeUnknown
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeRetryable:
		return "Retryable"
	case ErrorTypeNonRetryable:
		return "NonRetryable"
	case ErrorTypeUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Classifier decides whether an error is worth retrying.
type Classifier func(error) ErrorType

// HTTPStatusError is an interface for errors that have HTTP status codes
type HTTPStatusError interface {
	error
	HTTPStatusCode() int
}

// ClassifyError is the default classifier, geared to network and API errors.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeNonRetryable
	}

	// Context cancellation means the user interrupted; never retry.
	if errors.Is(err, context.Canceled) {
		return ErrorTypeNonRetryable
	}

	// Deadline exceeded is a timeout; retryable.
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeRetryable
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrorTypeRetryable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorTypeRetryable
	}

	if statusErr, ok := err.(HTTPStatusError); ok {
		return classifyHTTPStatus(statusErr.HTTPStatusCode())
	}

	type httpError interface {
		error
		StatusCode() int
	}
	if httpErr, ok := err.(httpError); ok {
		return classifyHTTPStatus(httpErr.StatusCode())
	}

	// Context-window errors cannot be fixed by retrying.
	errMsg := strings.ToLower(err.Error())
	contextKeywords := []string{
		"context length",
		"context_length",
		"maximum context",
		"token limit",
		"tokens exceeded",
	}
	for _, keyword := range contextKeywords {
		if strings.Contains(errMsg, keyword) {
			return ErrorTypeNonRetryable
		}
	}

	if strings.Contains(errMsg, "timeout") {
		return ErrorTypeRetryable
	}

	// Conservative approach: unknown errors are not retried.
	return ErrorTypeUnknown
}

// classifyHTTPStatus classifies HTTP status codes
func classifyHTTPStatus(statusCode int) ErrorType {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRetryable
	case http.StatusServiceUnavailable:
		return ErrorTypeRetryable
	case http.StatusBadGateway:
		return ErrorTypeRetryable
	case http.StatusGatewayTimeout:
		return ErrorTypeRetryable
	case http.StatusBadRequest:
		return ErrorTypeNonRetryable
	case http.StatusUnauthorized:
		return ErrorTypeNonRetryable
	case http.StatusForbidden:
		return ErrorTypeNonRetryable
	case http.StatusNotFound:
		return ErrorTypeNonRetryable
	default:
		if statusCode >= 500 {
			return ErrorTypeRetryable
		}
		if statusCode >= 400 {
			return ErrorTypeNonRetryable
		}
		return ErrorTypeUnknown
	}
}

// CalculateBackoff calculates the backoff duration for a retry attempt using
// exponential backoff: min(base * 2^(attempt-1), max).
func CalculateBackoff(attempt int, base, max float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := base * math.Pow(2, float64(attempt-1))
	if backoff > max {
		backoff = max
	}

	return time.Duration(backoff * float64(time.Second))
}

// Config holds configuration for retry behavior
type Config struct {
	Enabled     bool       // Whether retry is enabled
	MaxAttempts int        // Maximum number of retry attempts
	BackoffBase float64    // Base backoff duration in seconds
	BackoffMax  float64    // Maximum backoff duration in seconds
	Classify    Classifier // Error classifier; nil means ClassifyError
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxAttempts: 3,
		BackoffBase: 1.0,
		BackoffMax:  8.0,
	}
}

// Validate validates the retry configuration
func (c *Config) Validate() error {
	if c.MaxAttempts < 0 {
		return errors.New("max_attempts must be non-negative")
	}
	if c.BackoffBase < 0 {
		return errors.New("backoff_base must be non-negative")
	}
	if c.BackoffMax < c.BackoffBase {
		return errors.New("backoff_max must be greater than or equal to backoff_base")
	}
	return nil
}

func (c Config) classify(err error) ErrorType {
	if c.Classify != nil {
		return c.Classify(err)
	}
	return ClassifyError(err)
}

// Func is a function that can be retried
type Func func() error

// WithRetry executes a function with retry logic
func WithRetry(ctx context.Context, cfg Config, fn Func) error {
	if !cfg.Enabled || cfg.MaxAttempts <= 0 {
		return fn()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts+1; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.classify(err) != ErrorTypeRetryable {
			return err
		}

		if attempt > cfg.MaxAttempts {
			return err
		}

		backoff := CalculateBackoff(attempt, cfg.BackoffBase, cfg.BackoffMax)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// FuncWithResult is a function that can be retried and returns a result
type FuncWithResult[T any] func() (T, error)

// WithRetryResult executes a function with retry logic and returns a result
func WithRetryResult[T any](ctx context.Context, cfg Config, fn FuncWithResult[T]) (T, error) {
	var zero T

	if !cfg.Enabled || cfg.MaxAttempts <= 0 {
		return fn()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts+1; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if cfg.classify(err) != ErrorTypeRetryable {
			return zero, err
		}

		if attempt > cfg.MaxAttempts {
			return zero, err
		}

		backoff := CalculateBackoff(attempt, cfg.BackoffBase, cfg.BackoffMax)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return zero, lastErr
}

package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "network timeout",
			err:  &net.OpError{Op: "dial", Err: errors.New("timeout")},
			want: ErrorTypeRetryable,
		},
		{
			name: "DNS error",
			err:  &net.DNSError{Err: "no such host"},
			want: ErrorTypeRetryable,
		},
		{
			name: "context deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ErrorTypeRetryable,
		},
		{
			name: "context canceled is user cancellation",
			err:  context.Canceled,
			want: ErrorTypeNonRetryable,
		},
		{
			name: "HTTP 503",
			err:  &HTTPError{Code: http.StatusServiceUnavailable, Message: "service unavailable"},
			want: ErrorTypeRetryable,
		},
		{
			name: "HTTP 429",
			err:  &HTTPError{Code: http.StatusTooManyRequests, Message: "too many requests"},
			want: ErrorTypeRetryable,
		},
		{
			name: "HTTP 400",
			err:  &HTTPError{Code: http.StatusBadRequest, Message: "bad request"},
			want: ErrorTypeNonRetryable,
		},
		{
			name: "HTTP 401",
			err:  &HTTPError{Code: http.StatusUnauthorized, Message: "unauthorized"},
			want: ErrorTypeNonRetryable,
		},
		{
			name: "context window exceeded",
			err:  errors.New("maximum context length is 128000"),
			want: ErrorTypeNonRetryable,
		},
		{
			name: "timeout in message",
			err:  errors.New("request timeout while waiting"),
			want: ErrorTypeRetryable,
		},
		{
			name: "unknown errors are conservative",
			err:  errors.New("something odd"),
			want: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Second, CalculateBackoff(1, 1.0, 8.0))
	assert.Equal(t, 2*time.Second, CalculateBackoff(2, 1.0, 8.0))
	assert.Equal(t, 4*time.Second, CalculateBackoff(3, 1.0, 8.0))
	// Capped at max.
	assert.Equal(t, 8*time.Second, CalculateBackoff(10, 1.0, 8.0))
	// Attempt below 1 is clamped.
	assert.Equal(t, 1*time.Second, CalculateBackoff(0, 1.0, 8.0))
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := Config{Enabled: true, MaxAttempts: 3, BackoffBase: 0.001, BackoffMax: 0.001}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return &HTTPError{Code: http.StatusServiceUnavailable, Message: "busy"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonRetryableFailsFast(t *testing.T) {
	cfg := Config{Enabled: true, MaxAttempts: 3, BackoffBase: 0.001, BackoffMax: 0.001}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		return &HTTPError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_Disabled(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), Config{Enabled: false}, func() error {
		calls++
		return errors.New("fail")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CustomClassifier(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		MaxAttempts: 2,
		BackoffBase: 0.001,
		BackoffMax:  0.001,
		Classify: func(err error) ErrorType {
			return ErrorTypeRetryable
		},
	}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		return errors.New("always transient per classifier")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestWithRetryResult(t *testing.T) {
	cfg := Config{Enabled: true, MaxAttempts: 2, BackoffBase: 0.001, BackoffMax: 0.001}

	calls := 0
	got, err := WithRetryResult(context.Background(), cfg, func() ([]string, error) {
		calls++
		if calls == 1 {
			return nil, &HTTPError{Code: http.StatusBadGateway, Message: "bad gateway"}
		}
		return []string{"ok"}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, DefaultConfig(), func() error {
		return errors.New("never reached after cancel check")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := Config{MaxAttempts: -1}
	assert.Error(t, bad.Validate())

	bad = Config{BackoffBase: 4, BackoffMax: 2}
	assert.Error(t, bad.Validate())
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// ProviderError carries the provider's HTTP status and whether the failure
// is worth retrying. 4xx responses and malformed input are permanent;
// timeouts and 5xx are transient.
type ProviderError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: status=%d transient=%t: %v", e.Provider, e.StatusCode, e.Transient, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether an error chain represents a retryable
// provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func classifyStatus(provider string, status int, err error) error {
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Transient:  status >= http.StatusInternalServerError,
		Err:        err,
	}
}

// withRetry runs fn with bounded retry and exponential backoff plus jitter.
// Only transient failures are retried; the caller's context cancels both
// the in-flight attempt and the backoff sleep.
func withRetry(ctx context.Context, provider string, maxRetries int, backoffBase time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			backoff += time.Duration(rand.Int63n(int64(backoffBase)))
			slog.Info("Retrying provider call",
				"provider", provider,
				"attempt", attempt,
				"backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Provider call failed",
			"provider", provider,
			"attempt", attempt,
			"error", err)
	}

	return fmt.Errorf("%s provider exhausted %d retries: %w", provider, maxRetries, lastErr)
}

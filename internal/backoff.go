package internal

import (
	"context"
	"fmt"
	"time"
)

type backoffConfig struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	isRetryable  func(error) bool
}

// BackoffOption configures exponential backoff behavior.
type BackoffOption func(*backoffConfig)

// WithBackoffMaxAttempts sets the maximum number of attempts. Default is 3.
func WithBackoffMaxAttempts(n int) BackoffOption {
	return func(c *backoffConfig) {
		c.maxAttempts = n
	}
}

// WithBackoffInitialDelay sets the delay before the first retry. The delay
// doubles with each subsequent attempt. Default is 1 second.
func WithBackoffInitialDelay(d time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		c.initialDelay = d
	}
}

// WithBackoffMaxDelay caps the delay between attempts. Zero means no cap.
func WithBackoffMaxDelay(d time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		c.maxDelay = d
	}
}

// WithBackoffRetryable sets the function that determines if an error is
// retryable. If not specified, no errors are retried.
func WithBackoffRetryable(fn func(error) bool) BackoffOption {
	return func(c *backoffConfig) {
		c.isRetryable = fn
	}
}

// ExponentialBackoff executes fn with exponential backoff retry logic,
// retrying while isRetryable returns true up to maxAttempts times. It returns
// the result of the first successful call, or the last error once attempts
// are exhausted.
func ExponentialBackoff[T any](ctx context.Context, fn func() (T, error), opts ...BackoffOption) (T, error) {
	config := backoffConfig{
		maxAttempts:  3,
		initialDelay: time.Second,
		isRetryable:  func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(&config)
	}

	var zero T
	var lastErr error

	for attempt := range config.maxAttempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if !config.isRetryable(err) {
			return zero, err
		}

		lastErr = err

		// no sleep after the last attempt
		if attempt < config.maxAttempts-1 {
			delay := config.initialDelay * time.Duration(1<<attempt)
			if config.maxDelay > 0 && delay > config.maxDelay {
				delay = config.maxDelay
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", config.maxAttempts, lastErr)
}

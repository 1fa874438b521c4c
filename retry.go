package seltra

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
// The engine never retries on its own; retrying is a caller-level policy.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
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

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TranslationError
	if errors.As(err, &te) {
		return te.Retryable
	}

	// Bare context errors come from the caller and are not retryable
	return false
}

// TranslateWithRetry runs engine.Translate and retries retryable failures.
// When retries are exhausted the last failure is returned.
func TranslateWithRetry(ctx context.Context, engine *Engine, cfg RetryConfig, text string) Result {
	result, _ := TranslateWithRetryProvider(ctx, engine, cfg, text)
	return result
}

// TranslateWithRetryProvider is TranslateWithRetry that also reports the
// provider of the last attempt. A switch between attempts is reflected.
func TranslateWithRetryProvider(ctx context.Context, engine *Engine, cfg RetryConfig, text string) (Result, string) {
	var (
		last     Result
		provider string
	)
	_, err := WithRetry(ctx, cfg, func() (string, error) {
		last, provider = engine.TranslateWithProvider(ctx, text)
		return last.Text(), last.Err()
	})
	if !last.OK() && last.Reason() == "" {
		// ctx ended before the first attempt
		return FailureFrom(err), engine.ActiveProvider()
	}
	return last, provider
}

package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// RetryConfig controls retry behavior for summary requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseBackoff is the delay after the first failure; attempt n waits
	// BaseBackoff * n before retrying.
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the stock retry policy: three attempts
// with linear backoff starting at two seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 2 * time.Second,
	}
}

// IsTransient reports whether an API failure is worth retrying.
// Rate limits, server errors, and network timeouts are transient;
// auth failures and request rejections are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 408 || apierr.StatusCode == 429:
			return true
		case apierr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// Do runs fn up to cfg.MaxAttempts times, sleeping between attempts.
// Non-transient errors and context cancellation stop retrying
// immediately. The last error is returned if all attempts fail.
func Do(ctx context.Context, cfg RetryConfig, fn func(context.Context) (string, error)) (string, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == attempts {
			break
		}

		select {
		case <-time.After(cfg.BaseBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// Package retry re-runs operations that fail with transient network errors.
// Requests sent through the azcore pipeline are retried by the pipeline; this
// package covers calls made through SDK clients that only retry on HTTP status.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"o365cli/internal/common/logger"
)

// maxDelay caps the exponential backoff.
const maxDelay = 30 * time.Second

// Policy configures WithBackoff. The zero value runs the operation once.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *slog.Logger
}

// IsRetryableError determines if an error is transient and worth retrying.
// Returns true for network timeouts, connection errors, and temporary failures.
// Returns false for context cancellation and everything the service answered.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"try again",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"unexpected eof",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// WithBackoff runs operation and retries it up to p.MaxRetries times while it
// fails with a retryable error. The delay starts at p.BaseDelay and doubles on
// each attempt. Context cancellation stops retries immediately.
func (p Policy) WithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			if attempt > 0 {
				logger.LogDebug(p.Logger, "Operation succeeded after retries", "retries", attempt)
			}
			return nil
		}

		if !IsRetryableError(lastErr) {
			return lastErr
		}

		if attempt == p.MaxRetries {
			if attempt == 0 {
				return lastErr
			}
			return fmt.Errorf("operation failed after %d retries: %w", p.MaxRetries, lastErr)
		}

		delay := p.BaseDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		logger.LogWarn(p.Logger, "Retryable error encountered",
			"attempt", attempt+1, "maxRetries", p.MaxRetries, "error", lastErr, "delay", delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return lastErr
}

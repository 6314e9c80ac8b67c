package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/sku-resolver/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError marks a store error as transient or permanent.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func retryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 50 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 2 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	if opts.Operation == "" {
		opts.Operation = "store write"
	}
	return opts
}

// Backoff returns the delay before retry number attempt (1-based).
func Backoff(opts service.RetryOptions, attempt int) time.Duration {
	opts = retryDefaults(opts)
	delay := float64(opts.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= opts.Multiplier
		if delay >= float64(opts.MaxDelay) {
			return opts.MaxDelay
		}
	}
	return time.Duration(delay)
}

// WithRetry runs operation until it succeeds, fails with an error that
// IsRetryable rejects, exhausts its attempts, or ctx ends.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = retryDefaults(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%s: %w after %d attempts: %w", opts.Operation, ErrMaxRetries, attempt, err)
		}

		delay := Backoff(opts, attempt)
		slog.Warn("Store write failed, retrying",
			"operation", opts.Operation,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

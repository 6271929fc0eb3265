package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
)

// RetryConfig controls Retry. MaxRetries counts every attempt, the first included.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	JitterFactor    float64 // fraction of the delay added at random, 0 to 1
	LogRetryAttempt bool
	ShouldRetry     func(err error, attempt int) bool
}

// DefaultRetryConfig is tuned for the state mirror and event stream, which should catch up
// quickly after a short outage without holding the caller for long.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      4,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		JitterFactor:    0.2,
		LogRetryAttempt: true,
		ShouldRetry:     IsRetryable,
	}
}

// ErrPermanent marks an error that must not be retried.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so that IsRetryable reports false for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsRetryable is the default predicate: context errors and permanent errors stop the loop.
func IsRetryable(err error, _ int) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrPermanent)
}

func (c *RetryConfig) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return errors.New("MaxRetries must be >= 0")
	case c.InitialDelay <= 0:
		return errors.New("InitialDelay must be positive")
	case c.MaxDelay <= 0:
		return errors.New("MaxDelay must be positive")
	case c.BackoffFactor < 1.0:
		return errors.New("BackoffFactor must be >= 1.0")
	case c.JitterFactor < 0 || c.JitterFactor > 1.0:
		return errors.New("JitterFactor must be between 0.0 and 1.0")
	}
	return nil
}

// CalculateNextDelay grows delay by backoffFactor, capped at maxDelay.
func CalculateNextDelay(delay time.Duration, backoffFactor float64, maxDelay time.Duration) time.Duration {
	return min(time.Duration(float64(delay)*backoffFactor), maxDelay)
}

func withJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	return delay + time.Duration(jitterFactor*float64(delay)*rand.Float64())
}

// Retry runs operation until it succeeds, the predicate rejects its error, the
// attempts run out or ctx ends. A nil config uses DefaultRetryConfig.
func Retry[T any](ctx context.Context, operation func() (T, error), cfg *RetryConfig, logger logging.Logger) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultRetryConfig()
	} else if err := cfg.Validate(); err != nil {
		return zero, fmt.Errorf("invalid retry config: %w", err)
	}
	attempts := max(cfg.MaxRetries, 1)
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err, attempt) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		sleep := withJitter(delay, cfg.JitterFactor)
		if cfg.LogRetryAttempt && logger != nil {
			logger.Warn("Attempt failed, retrying", "attempt", attempt, "max_attempts", attempts, "error", err, "backoff", sleep)
		}
		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
			delay = CalculateNextDelay(delay, cfg.BackoffFactor, cfg.MaxDelay)
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// RetryFunc is Retry for operations without a result.
func RetryFunc(ctx context.Context, operation func() error, cfg *RetryConfig, logger logging.Logger) error {
	_, err := Retry(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, cfg, logger)
	return err
}

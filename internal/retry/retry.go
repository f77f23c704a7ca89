package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fable/internal/logging"
)

// ErrAttemptsExhausted is returned when every attempt allowed by the
// policy failed with a retryable error. Use errors.Is to detect it; the
// final underlying error stays reachable through errors.Unwrap.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy configures retry behavior for upstream calls.
type Policy struct {
	MaxRetries int                                              // retries after the first attempt (default: 4)
	BaseDelay  time.Duration                                    // delay before the first retry (default: 4s)
	Multiplier float64                                          // backoff growth factor (default: 2)
	MaxDelay   time.Duration                                    // cap on a single delay, 0 means uncapped
	Classify   func(err error) bool                             // reports whether err is retryable, default IsRetryable
	Sleep      func(ctx context.Context, d time.Duration) error // injectable for tests
}

// DefaultPolicy returns the policy used for story generation calls:
// up to 5 attempts with delays of 4s, 8s, 16s and 32s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 4,
		BaseDelay:  4 * time.Second,
		Multiplier: 2,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 4 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.Classify == nil {
		p.Classify = IsRetryable
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// backoff returns the delay before retry number k, counted from 1.
func (p Policy) backoff(retryNum int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(retryNum-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executor runs operations under a retry policy.
type Executor struct {
	policy Policy
	logger logging.Logger
}

// New returns an executor for the given policy.
func New(policy Policy, logger logging.Logger) *Executor {
	return &Executor{
		policy: policy.withDefaults(),
		logger: logging.OrNop(logger),
	}
}

// Do executes op until it succeeds, fails with a non-retryable error,
// the context is cancelled, or the attempt budget runs out.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue executes op and returns its result, retrying per the policy.
// A non-retryable error is returned unchanged after a single attempt.
// Exhaustion is reported as ErrAttemptsExhausted wrapping the last error.
func DoValue[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := e.policy.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				e.logger.Info("call succeeded on attempt %d/%d", attempt, maxAttempts)
			}
			return result, nil
		}

		if !e.policy.Classify(err) {
			e.logger.Debug("non-retryable error on attempt %d: %v", attempt, err)
			return zero, err
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := e.policy.backoff(attempt)
		e.logger.Warn("retryable error on attempt %d/%d, waiting %v: %v", attempt, maxAttempts, delay, err)
		if sleepErr := e.policy.Sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}

	e.logger.Error("all %d attempts failed: %v", maxAttempts, lastErr)
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, maxAttempts, lastErr)
}

// BestEffort executes op under the policy and swallows any terminal
// failure, returning the zero value instead. Used for optional work
// where a missing result is preferable to a failed operation.
func BestEffort[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) T {
	result, err := DoValue(ctx, e, op)
	if err != nil {
		e.logger.Warn("best-effort call failed, continuing without result: %v", err)
		var zero T
		return zero
	}
	return result
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestExecutor(policy Policy, rec *sleepRecorder) *Executor {
	policy.Sleep = rec.sleep
	return New(policy, nil)
}

func TestDoValueRetryableExhaustsAllAttempts(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(DefaultPolicy(), rec)

	calls := 0
	_, err := DoValue(context.Background(), exec, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("429 rate limit exceeded")
	})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.Equal(t, 5, calls)
	require.Equal(t, []time.Duration{
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}, rec.delays)
}

func TestDoValueExhaustionKeepsCauseReachable(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(Policy{MaxRetries: 1, BaseDelay: time.Millisecond}, rec)

	cause := NewTransientError(errors.New("quota exceeded"), "quota exceeded")
	_, err := DoValue(context.Background(), exec, func(ctx context.Context) (int, error) {
		return 0, cause
	})

	require.ErrorIs(t, err, ErrAttemptsExhausted)
	var transientErr *TransientError
	require.ErrorAs(t, err, &transientErr)
}

func TestDoValueNonRetryableFailsImmediately(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(DefaultPolicy(), rec)

	boom := errors.New("invalid api key")
	calls := 0
	_, err := DoValue(context.Background(), exec, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})

	require.Equal(t, 1, calls)
	require.Empty(t, rec.delays)
	// The original error must propagate unchanged.
	require.Equal(t, boom, err)
	require.NotErrorIs(t, err, ErrAttemptsExhausted)
}

func TestDoValueSucceedsAfterRetries(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(DefaultPolicy(), rec)

	calls := 0
	got, err := DoValue(context.Background(), exec, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limit")
		}
		return "once upon a time", nil
	})

	require.NoError(t, err)
	require.Equal(t, "once upon a time", got)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, rec.delays)
}

func TestDoValueRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := New(Policy{MaxRetries: 3, BaseDelay: time.Minute}, nil)

	calls := 0
	_, err := DoValue(ctx, exec, func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("rate limit")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoWrapsErrorlessOperations(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(DefaultPolicy(), rec)

	calls := 0
	err := exec.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestBestEffortReturnsZeroOnFailure(t *testing.T) {
	rec := &sleepRecorder{}
	exec := newTestExecutor(Policy{MaxRetries: 1, BaseDelay: time.Millisecond}, rec)

	got := BestEffort(context.Background(), exec, func(ctx context.Context) (string, error) {
		return "", errors.New("rate limit")
	})
	require.Equal(t, "", got)

	got = BestEffort(context.Background(), exec, func(ctx context.Context) (string, error) {
		return "cover.png", nil
	})
	require.Equal(t, "cover.png", got)
}

func TestBackoffHonorsMaxDelay(t *testing.T) {
	policy := Policy{MaxRetries: 5, BaseDelay: 4 * time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}.withDefaults()
	require.Equal(t, 4*time.Second, policy.backoff(1))
	require.Equal(t, 8*time.Second, policy.backoff(2))
	require.Equal(t, 10*time.Second, policy.backoff(3))
	require.Equal(t, 10*time.Second, policy.backoff(4))
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit text", errors.New("You exceeded your Rate Limit"), true},
		{"status 429", errors.New("API error: status 429"), true},
		{"quota", errors.New("insufficient quota remaining"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: try later"), true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"malformed request", errors.New("bad request"), false},
		{"explicit transient", NewTransientError(errors.New("overloaded"), ""), true},
		{"explicit permanent", NewPermanentError(errors.New("429 but marked fatal"), ""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

package resilience

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transient() error {
	return ai.NewProviderError(ai.KindUnavailable, errors.New("503 service unavailable"))
}

func fastExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	base := []Option{
		WithMinInterval(0),
		WithInitialDelay(10 * time.Millisecond),
		WithJitter(0),
	}
	e, err := NewExecutor(append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func TestExecute_Success(t *testing.T) {
	e := fastExecutor(t)
	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
	assert.Equal(t, int64(1), e.Stats().Attempts)
	assert.Equal(t, int64(0), e.Stats().Retries)
}

func TestExecute_EventualSuccessWithGrowingBackoff(t *testing.T) {
	e := fastExecutor(t)

	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 5 {
			return transient()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)

	require.Len(t, delays, 4)
	for i := 1; i < len(delays); i++ {
		assert.GreaterOrEqual(t, delays[i], delays[i-1], "delay %d should not shrink", i)
	}
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.Equal(t, int64(4), e.Stats().Retries)
}

func TestExecute_ExhaustedAfterMaxAttempts(t *testing.T) {
	e := fastExecutor(t, WithInitialDelay(time.Millisecond))
	cause := transient()
	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, attempts, "should attempt exactly maxAttempts times")
	assert.ErrorIs(t, err, core.ErrProviderTransient)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, core.ErrProviderFatal)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.Contains(t, err.Error(), "after 5 attempts")
	assert.Equal(t, int64(1), e.Stats().Failures)
}

func TestExecute_FatalReturnsImmediately(t *testing.T) {
	e := fastExecutor(t)
	attempts := 0
	cause := errors.New("invalid argument: bad request")
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, core.ErrProviderFatal)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, core.ErrProviderTransient)
}

func TestExecute_UnclassifiedTransientMessage(t *testing.T) {
	e := fastExecutor(t, WithInitialDelay(time.Millisecond))
	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("model is overloaded, try later")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecute_ContextCanceled(t *testing.T) {
	e := fastExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := e.Execute(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return transient()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestExecute_DeadlineBeforeNextSlot(t *testing.T) {
	e := New(WithMinInterval(time.Second), WithJitter(0))
	require.NoError(t, e.Execute(context.Background(), func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	called := false
	start := time.Now()
	err := e.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "limiter should fail without waiting out the deadline")
}

func TestExecute_ContextCanceledDuringBackoff(t *testing.T) {
	e := fastExecutor(t, WithInitialDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.Execute(ctx, func(ctx context.Context) error {
		return transient()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecute_ConcurrentCallsRespectMinInterval(t *testing.T) {
	const interval = 20 * time.Millisecond
	const tolerance = 3 * time.Millisecond
	e := fastExecutor(t, WithMinInterval(interval))

	var mu sync.Mutex
	var calls []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := e.Execute(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				calls = append(calls, time.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, calls, 8)
	slices.SortFunc(calls, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(calls); i++ {
		gap := calls[i].Sub(calls[i-1])
		assert.GreaterOrEqual(t, gap, interval-tolerance, "gap %d was %s", i, gap)
	}
}

func TestDo_ReturnsResult(t *testing.T) {
	e := fastExecutor(t, WithInitialDelay(time.Millisecond))
	attempts := 0
	vec, err := Do(context.Background(), e, func(ctx context.Context) ([]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, transient()
		}
		return []float32{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestDo_ReturnsZeroOnError(t *testing.T) {
	e := fastExecutor(t)
	got, err := Do(context.Background(), e, func(ctx context.Context) (string, error) {
		return "partial", errors.New("fatal")
	})
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestWithJitter_Bounds(t *testing.T) {
	e := New(WithJitter(0.1))
	delay := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		got := e.withJitter(delay)
		assert.GreaterOrEqual(t, got, delay)
		assert.Less(t, got, delay+10*time.Millisecond)
	}
}

func TestNewExecutor_InvalidConfig(t *testing.T) {
	_, err := NewExecutor(WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewExecutor(WithMultiplier(0.5))
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = NewExecutor(WithJitter(2))
	assert.ErrorIs(t, err, ErrInvalidJitter)

	assert.Panics(t, func() { New(WithMaxAttempts(-1)) })
}

func TestDefaultConfig(t *testing.T) {
	cfg := New().Config()
	assert.Equal(t, 500*time.Millisecond, cfg.MinInterval)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.InitialDelay)
	assert.InDelta(t, 1.5, cfg.Multiplier, 1e-9)
	assert.InDelta(t, 0.1, cfg.Jitter, 1e-9)
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"golang.org/x/time/rate"
)

const (
	DefaultMinInterval  = 500 * time.Millisecond
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 2 * time.Second
	DefaultMultiplier   = 1.5
	DefaultJitter       = 0.1
)

// Config holds the executor settings.
type Config struct {
	MinInterval  time.Duration `yaml:"min_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Jitter       float64       `yaml:"jitter"`
}

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		MinInterval:  DefaultMinInterval,
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       DefaultJitter,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.Multiplier < 1 {
		return ErrInvalidMultiplier
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return ErrInvalidJitter
	}
	return nil
}

// Option configures an Executor.
type Option func(*Executor)

// WithConfig replaces all settings at once.
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithMinInterval sets the minimum spacing between any two attempts.
// Zero disables rate limiting.
func WithMinInterval(d time.Duration) Option {
	return func(e *Executor) {
		e.cfg.MinInterval = d
	}
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		e.cfg.MaxAttempts = n
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.cfg.InitialDelay = d
	}
}

// WithMultiplier sets the factor applied to the delay after each retry.
func WithMultiplier(m float64) Option {
	return func(e *Executor) {
		e.cfg.Multiplier = m
	}
}

// WithJitter sets the maximum random extra wait as a fraction of the delay.
func WithJitter(fraction float64) Option {
	return func(e *Executor) {
		e.cfg.Jitter = fraction
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// Stats counts executor activity since creation.
type Stats struct {
	Attempts int64
	Retries  int64
	Failures int64
}

// Executor runs provider calls under a shared rate limit with retries.
// It is safe for concurrent use.
type Executor struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	attempts atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

// New creates an Executor. It panics on invalid settings; use NewExecutor to get an error instead.
func New(opts ...Option) *Executor {
	e, err := NewExecutor(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// NewExecutor creates an Executor with the defaults overridden by opts.
func NewExecutor(opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg:    DefaultConfig(),
		logger: slog.Default().With("component", "resilience"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if e.cfg.MinInterval > 0 {
		limit = rate.Every(e.cfg.MinInterval)
	}
	e.limiter = rate.NewLimiter(limit, 1)
	return e, nil
}

// Config returns the executor settings.
func (e *Executor) Config() Config {
	return e.cfg
}

// Stats returns a snapshot of the counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Attempts: e.attempts.Load(),
		Retries:  e.retries.Load(),
		Failures: e.failures.Load(),
	}
}

// Execute runs op until it succeeds, fails with a non-retryable error, or
// runs out of attempts.
//
// Fatal errors are returned wrapped with core.ErrProviderFatal. Exhausted
// retries return an *ExhaustedError, which matches core.ErrProviderTransient.
// Context cancellation during a wait returns ctx.Err().
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	delay := e.cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return contextErr(ctx, err)
		}

		e.attempts.Add(1)
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				e.logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !ai.IsRetryable(lastErr) {
			e.failures.Add(1)
			e.logger.Debug("operation failed with fatal error", "attempt", attempt, "err", lastErr)
			return fmt.Errorf("%w: %w", core.ErrProviderFatal, lastErr)
		}

		// Don't sleep after the last attempt
		if attempt == e.cfg.MaxAttempts {
			break
		}

		wait := e.withJitter(delay)
		e.logger.Debug("operation failed, will retry",
			"attempt", attempt,
			"maxAttempts", e.cfg.MaxAttempts,
			"kind", ai.KindOf(lastErr),
			"wait", wait,
			"err", lastErr)

		e.retries.Add(1)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * e.cfg.Multiplier)
	}

	e.failures.Add(1)
	e.logger.Warn("retries exhausted", "attempts", e.cfg.MaxAttempts, "err", lastErr)
	return &ExhaustedError{Attempts: e.cfg.MaxAttempts, Err: lastErr}
}

// Do runs op through e and returns its result.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// withJitter returns delay plus a uniform random amount in [0, Jitter*delay).
func (e *Executor) withJitter(delay time.Duration) time.Duration {
	spread := int64(float64(delay) * e.cfg.Jitter)
	if spread <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int64N(spread))
}

// contextErr prefers the context's own error over the limiter's wrapping of it.
// The limiter fails early, before ctx expires, when the next slot lies past the
// deadline; that is reported as a deadline error too.
func contextErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package db

import (
	"context"
	"time"

	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/common/resilience"
)

// Runner executes repository calls under a per-attempt timeout, the retry
// policy for the call's mode, and a shared circuit breaker.
type Runner struct {
	breaker      *resilience.CircuitBreaker
	log          *logger.Logger
	retry        RetryConfig
	queryTimeout time.Duration
}

type RunnerConfig struct {
	Breaker      *resilience.CircuitBreaker
	Logger       *logger.Logger
	Retry        RetryConfig
	QueryTimeout time.Duration
}

func NewRunner(cfg RunnerConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDiscard()
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig
	}
	return &Runner{
		breaker:      cfg.Breaker,
		log:          log,
		retry:        retry,
		queryTimeout: cfg.QueryTimeout,
	}
}

func (r *Runner) Read(ctx context.Context, fn func(context.Context) error) error {
	return r.run(ctx, ModeRead, fn)
}

func (r *Runner) Write(ctx context.Context, fn func(context.Context) error) error {
	return r.run(ctx, ModeWrite, fn)
}

func (r *Runner) run(ctx context.Context, mode Mode, fn func(context.Context) error) error {
	return RetryWithBackoff(ctx, r.log, r.retry, mode, func() error {
		return r.attempt(ctx, fn)
	})
}

func (r *Runner) attempt(ctx context.Context, fn func(context.Context) error) error {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}
	if r.breaker == nil {
		return fn(ctx)
	}
	return r.breaker.Call(ctx, fn)
}

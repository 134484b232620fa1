package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"

	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

// Mode tells the retry loop whether the operation is safe to repeat after an
// ambiguous failure.
type Mode int

const (
	// ModeRead may be retried after any transient failure, including a
	// per-attempt timeout.
	ModeRead Mode = iota
	// ModeWrite is retried only when the server reported the statement was
	// not applied. A timed-out write may already have committed.
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// notApplied lists codes raised before the statement could take effect.
var notApplied = map[string]struct{}{
	"08001": {},
	"08004": {},
	"40001": {},
	"40P01": {},
	"55P03": {},
}

// connectionLost lists codes where the outcome of an in-flight statement is unknown.
var connectionLost = map[string]struct{}{
	"08000": {},
	"08003": {},
	"08006": {},
	"08007": {},
	"08P01": {},
}

func isRetryableError(mode Mode, err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := notApplied[pgErr.Code]; ok {
			return true
		}
		if _, ok := connectionLost[pgErr.Code]; ok {
			return mode == ModeRead
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return mode == ModeRead
	}

	return false
}

// RetryWithBackoff runs operation until it succeeds, fails with a
// non-retryable error, or attempts run out. The parent context bounds the
// whole loop.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, config RetryConfig, mode Mode, operation func() error) error {
	var lastErr error
	delay := config.InitialDelay
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Infof("database %s succeeded after %d attempts", mode, attempt)
			}
			return nil
		}

		lastErr = err

		if ctx.Err() != nil || !isRetryableError(mode, err) {
			return err
		}

		if attempt == attempts {
			break
		}

		metrics.DBQueryRetries.WithLabelValues(mode.String()).Inc()
		log.Warnf("database %s failed (attempt %d/%d): %v, retrying in %v", mode, attempt, attempts, err, delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("database operation failed after %d attempts: %w", attempts, lastErr)
}

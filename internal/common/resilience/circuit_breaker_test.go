package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/fayad123/bcards-server/internal/common/errors"
)

func newTestBreaker(now *time.Time) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Threshold:  2,
		Timeout:    time.Second,
		ResetAfter: 10 * time.Second,
		Now:        func() time.Time { return *now },
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		err := cb.Call(context.Background(), func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}

	called := false
	err := cb.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, commonerrors.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return boom })
	}
	require.True(t, cb.IsOpen())

	now = now.Add(11 * time.Second)

	assert.False(t, cb.IsOpen())
	assert.NoError(t, cb.Call(context.Background(), func(context.Context) error { return nil }))
}

func TestCircuitBreaker_IgnoresDomainOutcomes(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	for i := 0; i < 5; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return pgx.ErrNoRows })
		_ = cb.Call(context.Background(), func(context.Context) error { return commonerrors.ErrValidation })
	}

	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	err := cb.CallWithFallback(context.Background(),
		func(context.Context) error { return errors.New("down") },
		func() error { return nil },
	)

	assert.NoError(t, err)
}

func TestCircuitBreaker_IgnoresRejectedData(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	for _, code := range []string{"22003", "23505", "22P02", "23502"} {
		rejected := &pgconn.PgError{Code: code}
		for i := 0; i < 3; i++ {
			err := cb.Call(context.Background(), func(context.Context) error { return rejected })
			require.ErrorIs(t, err, rejected)
		}
	}

	assert.False(t, cb.IsOpen())
	assert.NoError(t, cb.Call(context.Background(), func(context.Context) error { return nil }))
}

func TestCircuitBreaker_ConnectionErrorsStillCount(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)
	lost := &pgconn.PgError{Code: "08006"}

	for i := 0; i < 2; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return lost })
	}

	assert.True(t, cb.IsOpen())
}

// Package cleanup runs the login-stamp retention job.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fayad123/bcards-server/internal/common/clock"
	"github.com/fayad123/bcards-server/internal/common/logger"
	"github.com/fayad123/bcards-server/internal/observability/metrics"
)

type StampTrimmer interface {
	TrimLoginStamps(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	Schedule  string
	Retention time.Duration
	Timeout   time.Duration
}

type Job struct {
	repo  StampTrimmer
	cfg   Config
	clock clock.Clock
	log   *logger.Logger
	cron  *cron.Cron
}

func NewJob(repo StampTrimmer, cfg Config, c clock.Clock, log *logger.Logger) *Job {
	if c == nil {
		c = clock.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Job{repo: repo, cfg: cfg, clock: c, log: log}
}

// RunOnce removes stamps older than the retention window.
func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	cutoff := j.clock.Now().Add(-j.cfg.Retention)
	removed, err := j.repo.TrimLoginStamps(ctx, cutoff)
	if err != nil {
		j.log.WithFields(ctx, logger.Fields{
			"action": "login_stamp_cleanup_failed",
		}).Errorf("login stamp cleanup failed: %v", err)
		return 0, err
	}
	if removed > 0 {
		metrics.LoginStampsTrimmed.Add(float64(removed))
		j.log.WithFields(ctx, logger.Fields{
			"action":  "login_stamp_cleanup",
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("login stamp cleanup completed")
	}
	return removed, nil
}

// Start schedules RunOnce. A non-positive retention disables the job.
func (j *Job) Start() error {
	if j.cfg.Retention <= 0 {
		j.log.Infof("login stamp cleanup disabled")
		return nil
	}

	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.cfg.Schedule, err)
	}
	j.cron.Start()
	j.log.Infof("login stamp cleanup scheduled: %s (retention %v)", j.cfg.Schedule, j.cfg.Retention)
	return nil
}

// Stop waits for a running cleanup to finish or ctx to expire.
func (j *Job) Stop(ctx context.Context) error {
	if j.cron == nil {
		return nil
	}
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

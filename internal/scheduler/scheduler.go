package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/metricspush"
	obsmetrics "github.com/smallbiznis/corpsledger/internal/observability/metrics"
	reconciledomain "github.com/smallbiznis/corpsledger/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobReconcileAll = "reconcile_all"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log       *zap.Logger
	Reconcile reconciledomain.Service
	Locker    lock.Locker
	GenID     *snowflake.Node
	Clock     clock.Clock
	AppConfig config.Config
	Config    Config                    `optional:"true"`
	Metrics   *obsmetrics.LedgerMetrics `optional:"true"`
	Pusher    metricspush.Pusher        `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	reconcile reconciledomain.Service
	locker    lock.Locker
	metrics   *obsmetrics.LedgerMetrics
	pusher    metricspush.Pusher
	actor     string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Reconcile == nil || p.Locker == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		reconcile: p.Reconcile,
		locker:    p.Locker,
		metrics:   p.Metrics,
		pusher:    p.Pusher,
		actor:     p.AppConfig.Auth.SystemActor(),
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context, run *jobRun) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.logJobStart(ctx, run)

	err := s.withJobLock(ctx, name, func(ctx context.Context) error {
		return fn(ctx, run)
	})
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(ctx, run)

	elapsed := s.clock.Now().Sub(start)
	if err == nil {
		s.metrics.ObserveJob(name, obsmetrics.JobOutcomeOK, elapsed)
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.metrics.ObserveJob(name, obsmetrics.JobOutcomeTimeout, elapsed)
		s.logger(ctx).Warn("scheduler.job.timeout",
			zap.String("job", name),
			zap.String("run_id", run.runID),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	s.metrics.ObserveJob(name, obsmetrics.JobOutcomeFailed, elapsed)
	return fmt.Errorf("%s: %w", name, err)
}

// withJobLock keeps two scheduler instances from running the same job at once.
func (s *Scheduler) withJobLock(ctx context.Context, name string, fn func(context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, "scheduler:"+name)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobReconcileAll, s.isJobEnabled(JobReconcileAll), func(ctx context.Context) error {
			return s.runJob(ctx, JobReconcileAll, s.cfg.JobTimeout, s.ReconcileAllJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

// RunForever runs once at startup when configured and then on every tick.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	if s.cfg.RunOnStartup {
		s.runAndLog(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.log.Warn("scheduler.run.failed", zap.Error(err))
	}
	metricspush.Flush(context.WithoutCancel(ctx), s.pusher, s.log)
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ReconcileAllJob books every member's missing monthly fees up to today.
func (s *Scheduler) ReconcileAllJob(ctx context.Context, run *jobRun) error {
	asOf := calendar.Day(s.clock.Now())
	result := s.reconcile.ReconcileAll(ctx, asOf, s.actor)
	run.AddProcessed(len(result.Succeeded))

	for _, f := range result.Failed {
		s.logJobError(ctx, run, "scheduler.reconcile.member_failed", f.ID, f.Err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return result.Err()
}

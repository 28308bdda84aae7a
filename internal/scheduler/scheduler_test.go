package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/lock"
	obsmetrics "github.com/smallbiznis/corpsledger/internal/observability/metrics"
	reconciledomain "github.com/smallbiznis/corpsledger/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubReconcile struct {
	reconciledomain.Service

	mu     sync.Mutex
	calls  []time.Time
	actors []string
	result batch.Result
	block  bool
}

func (s *stubReconcile) ReconcileAll(ctx context.Context, asOf time.Time, actor string) batch.Result {
	s.mu.Lock()
	s.calls = append(s.calls, asOf)
	s.actors = append(s.actors, actor)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
	}
	return s.result
}

func newScheduler(t *testing.T, stub *stubReconcile, cfg Config) (*Scheduler, *prometheus.Registry) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	m, err := obsmetrics.NewLedgerMetrics(registry, obsmetrics.Config{ServiceName: "corpsledger", Environment: "test"})
	require.NoError(t, err)

	s, err := New(Params{
		Log:       zap.NewNop(),
		Reconcile: stub,
		Locker:    lock.NewKeyedMutex(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2025, 5, 7, 9, 30, 0, 0, time.UTC)),
		AppConfig: config.Config{Auth: config.AuthConfig{AdminEmails: []string{"kasse@corps.de"}}},
		Config:    cfg,
		Metrics:   m,
	})
	require.NoError(t, err)
	return s, registry
}

func TestRunOnceReconcilesAsOfToday(t *testing.T) {
	stub := &stubReconcile{result: batch.Result{Succeeded: []string{"a@corps.de", "b@corps.de"}}}
	s, registry := newScheduler(t, stub, Config{})

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, stub.calls, 1)
	assert.Equal(t, time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC), stub.calls[0])
	assert.Equal(t, "kasse@corps.de", stub.actors[0])

	count, err := testutil.GatherAndCount(registry, "corpsledger_scheduler_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunOnceReportsMemberFailures(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubReconcile{}
	stub.result.Ok("a@corps.de")
	stub.result.Fail("b@corps.de", boom)
	s, _ := newScheduler(t, stub, Config{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), JobReconcileAll)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	stub := &stubReconcile{block: true}
	s, _ := newScheduler(t, stub, Config{JobTimeout: 5 * time.Millisecond})

	assert.NoError(t, s.RunOnce(context.Background()))
	assert.Len(t, stub.calls, 1)
}

func TestDisabledJobIsSkipped(t *testing.T) {
	stub := &stubReconcile{}
	s, _ := newScheduler(t, stub, Config{EnabledJobs: []string{"something_else"}})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, stub.calls)
}

func TestRunForeverRunsOnStartupAndStops(t *testing.T) {
	stub := &stubReconcile{}
	s, _ := newScheduler(t, stub, Config{RunOnStartup: true, RunInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return len(stub.calls) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

type countingPusher struct {
	pushes int
}

func (p *countingPusher) Push(context.Context, prometheus.Gatherer) error {
	p.pushes++
	return errors.New("pushgateway down")
}

func TestRunAndLogPushesMetricsEvenOnFailure(t *testing.T) {
	stub := &stubReconcile{result: batch.Result{Failed: []batch.Failure{{ID: "a@corps.de", Err: errors.New("boom")}}}}
	s, _ := newScheduler(t, stub, Config{})
	pusher := &countingPusher{}
	s.pusher = pusher

	s.runAndLog(context.Background())

	assert.Equal(t, 1, pusher.pushes)
	assert.Len(t, stub.calls, 1)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	auditrepo "github.com/smallbiznis/corpsledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/corpsledger/internal/audit/service"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/lock"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	memberrepo "github.com/smallbiznis/corpsledger/internal/member/repository"
	memberservice "github.com/smallbiznis/corpsledger/internal/member/service"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	"github.com/smallbiznis/corpsledger/internal/reconcile/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	txrepo "github.com/smallbiznis/corpsledger/internal/transaction/repository"
	txservice "github.com/smallbiznis/corpsledger/internal/transaction/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	members  memberdomain.Service
	txs      txdomain.Service
	clock    *clock.FakeClock
	registry *prometheus.Registry
}

func setup(t *testing.T, name string) fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 7, 9, 0, 0, 0, time.UTC))
	locker := lock.NewKeyedMutex()

	audit := auditservice.NewService(auditservice.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Locker: locker,
		Repo:   auditrepo.Provide(),
	})
	members := memberservice.New(memberservice.Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     memberrepo.Provide(),
		AuditSvc: audit,
	})
	txs := txservice.New(txservice.Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      txrepo.Provide(),
		AuditSvc:  audit,
		Publisher: events.NoopPublisher{},
	})

	registry := prometheus.NewRegistry()
	ledgerMetrics, err := metrics.NewLedgerMetrics(registry, metrics.Config{ServiceName: "test"})
	require.NoError(t, err)

	svc := New(Params{
		Log:          zap.NewNop(),
		Clock:        fake,
		Locker:       locker,
		Ledger:       config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig()),
		Members:      members,
		Transactions: txs,
		Metrics:      ledgerMetrics,
	})
	return fixture{db: conn, svc: svc, members: members, txs: txs, clock: fake, registry: registry}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func addMember(t *testing.T, f fixture, email string, created time.Time, resident bool) {
	t.Helper()
	_, _, err := f.members.SaveMember(context.Background(), memberdomain.SaveMemberRequest{
		Email:     email,
		LastName:  "Muster",
		CreatedAt: ptr(created),
		Resident:  ptr(resident),
	})
	require.NoError(t, err)
}

func feeCount(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table("transactions").Where("member_email = ? AND type = ?", email, "monthly-fee").Count(&n).Error)
	return n
}

func TestPreviewAfterManualFee(t *testing.T) {
	f := setup(t, "reconcile_scenario_b")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 3, 15), true)

	preview, err := f.svc.Preview(ctx, "a@corps.de", day(2025, 5, 7))
	require.NoError(t, err)
	require.Len(t, preview, 3)

	_, err = f.txs.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 4, 1),
		Description: "Monatsbeitrag (April 2025)",
		Amount:      money.MustParse("-15.00"),
		Type:        txdomain.TypeMonthlyFee,
		Actor:       "admin",
	})
	require.NoError(t, err)

	preview, err = f.svc.Preview(ctx, "A@corps.de", day(2025, 5, 7))
	require.NoError(t, err)
	require.Len(t, preview, 2)
	assert.Equal(t, day(2025, 3, 1), preview[0].Date)
	assert.Equal(t, day(2025, 5, 1), preview[1].Date)
	assert.EqualValues(t, 1, feeCount(t, f.db, "a@corps.de"))
}

func TestReconcileMemberIsIdempotent(t *testing.T) {
	f := setup(t, "reconcile_idempotent")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 3, 15), true)

	summary, err := f.svc.ReconcileMember(ctx, "a@corps.de", time.Time{}, "scheduler")
	require.NoError(t, err)
	assert.Len(t, summary.Created, 3)

	summary, err = f.svc.ReconcileMember(ctx, "a@corps.de", time.Time{}, "scheduler")
	require.NoError(t, err)
	assert.Empty(t, summary.Created)
	assert.EqualValues(t, 3, feeCount(t, f.db, "a@corps.de"))

	balance, err := f.members.BalanceAsOf(ctx, "a@corps.de", day(2025, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, "-45.00", balance.String())

	runs, err := testutil.GatherAndCount(f.registry, "corpsledger_reconcile_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestReconcileMemberUnknown(t *testing.T) {
	f := setup(t, "reconcile_unknown")
	_, err := f.svc.ReconcileMember(context.Background(), "ghost@corps.de", day(2025, 5, 7), "admin")
	assert.ErrorIs(t, err, memberdomain.ErrNotFound)
}

func TestReconcileAllIsolatesFailures(t *testing.T) {
	f := setup(t, "reconcile_all")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 4, 2), true)
	addMember(t, f, "b@corps.de", day(2025, 5, 1), false)
	// joined after the as-of date, so its range is empty
	addMember(t, f, "c@corps.de", day(2025, 6, 1), true)

	result := f.svc.ReconcileAll(ctx, day(2025, 5, 7), "scheduler")
	assert.ElementsMatch(t, []string{"a@corps.de", "b@corps.de"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "c@corps.de", result.Failed[0].ID)
	assert.ErrorIs(t, result.Failed[0].Err, domain.ErrInvalidRange)

	assert.EqualValues(t, 2, feeCount(t, f.db, "a@corps.de"))
	assert.EqualValues(t, 1, feeCount(t, f.db, "b@corps.de"))

	all, err := f.svc.PreviewAll(ctx, day(2025, 5, 7))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSaveMissingPayments(t *testing.T) {
	f := setup(t, "reconcile_save_missing")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 3, 15), true)

	result := f.svc.SaveMissingPayments(ctx, []domain.PaymentRow{
		{Email: "a@corps.de", Date: "2025-03-01", Amount: "-15.00"},
		{Email: "a@corps.de", Date: "2025-04-01", Amount: "-15,00"},
		{Email: "a@corps.de", Date: "01.05.2025", Amount: "-15.00"},
		{Email: "a@corps.de", Date: "2025-05-01", Amount: "abc"},
		{Email: "a@corps.de", Date: "2025-03-01", Amount: "-15.00"},
		{Email: "ghost@corps.de", Date: "2025-03-01", Amount: "-15.00"},
	}, "admin")

	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0].Err, txdomain.ErrMemberNotFound)

	preview, err := f.svc.Preview(ctx, "a@corps.de", day(2025, 5, 7))
	require.NoError(t, err)
	require.Len(t, preview, 1)
	assert.Equal(t, day(2025, 5, 1), preview[0].Date)
}

func TestReconcileMemberConcurrentRunsBookOnce(t *testing.T) {
	f := setup(t, "reconcile_concurrent")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 3, 15), true)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := f.svc.ReconcileMember(ctx, "a@corps.de", day(2025, 5, 7), "scheduler")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			created += len(summary.Created)
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 3, created)
	assert.EqualValues(t, 3, feeCount(t, f.db, "a@corps.de"))

	balance, err := f.members.BalanceAsOf(ctx, "a@corps.de", day(2025, 5, 7))
	require.NoError(t, err)
	assert.Equal(t, "-45.00", balance.String())
}

func TestSaveMissingPaymentsMidMonthDateHitsBookedMonth(t *testing.T) {
	f := setup(t, "reconcile_save_mid_month")
	ctx := context.Background()
	addMember(t, f, "a@corps.de", day(2025, 3, 15), true)

	summary, err := f.svc.ReconcileMember(ctx, "a@corps.de", day(2025, 5, 7), "scheduler")
	require.NoError(t, err)
	require.Len(t, summary.Created, 3)

	result := f.svc.SaveMissingPayments(ctx, []domain.PaymentRow{
		{Email: "a@corps.de", Date: "2025-03-15", Amount: "-15.00"},
	}, "admin")
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failed)

	assert.EqualValues(t, 3, feeCount(t, f.db, "a@corps.de"))
	balance, err := f.members.BalanceAsOf(ctx, "a@corps.de", day(2025, 5, 7))
	require.NoError(t, err)
	assert.Equal(t, "-45.00", balance.String())
}

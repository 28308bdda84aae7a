package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepo "github.com/smallbiznis/corpsledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/corpsledger/internal/audit/service"
	"github.com/smallbiznis/corpsledger/internal/beverage/domain"
	"github.com/smallbiznis/corpsledger/internal/beverage/repository"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/lock"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	memberrepo "github.com/smallbiznis/corpsledger/internal/member/repository"
	memberservice "github.com/smallbiznis/corpsledger/internal/member/service"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	txrepo "github.com/smallbiznis/corpsledger/internal/transaction/repository"
	txservice "github.com/smallbiznis/corpsledger/internal/transaction/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc domain.Service
	txs txdomain.Service
}

func setup(t *testing.T, name string, beverages []config.Beverage) fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 7, 9, 0, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake, Locker: lock.NewKeyedMutex(), Repo: auditrepo.Provide(),
	})
	members := memberservice.New(memberservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake, Repo: memberrepo.Provide(), AuditSvc: audit,
	})
	txs := txservice.New(txservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fake, Repo: txrepo.Provide(), AuditSvc: audit, Publisher: events.NoopPublisher{},
	})
	for _, email := range []string{"a@corps.de", "b@corps.de"} {
		_, _, err := members.SaveMember(context.Background(), memberdomain.SaveMemberRequest{Email: email, LastName: "X"})
		require.NoError(t, err)
	}

	cfg := config.DefaultLedgerConfig()
	cfg.Beverages = beverages
	svc := New(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Ledger:       config.NewStaticLedgerConfigHolder(cfg),
		Repo:         repository.Provide(),
		Transactions: txs,
	})
	return fixture{svc: svc, txs: txs}
}

func assortment() []config.Beverage {
	return []config.Beverage{
		{Name: "Pils", Price: money.MustParse("1.20")},
		{Name: "Wasser", Price: money.MustParse("0.50")},
	}
}

func TestCreateAndBillReport(t *testing.T) {
	f := setup(t, "beverage_bill", assortment())
	ctx := context.Background()

	report, err := f.svc.CreateReport(ctx, domain.CreateReportRequest{
		ReportDate: time.Date(2025, 5, 6, 18, 0, 0, 0, time.UTC),
		Members: map[string]map[string]int{
			"a@corps.de":     {"Pils": 3, "Wasser": 2, "Sekt": 4},
			"B@corps.de":     {"Pils": 0},
			"ghost@corps.de": {"Pils": 1},
		},
		Events: []domain.EventCounts{{Title: "Stiftungsfest", Counts: map[string]int{"Pils": 40}}},
	})
	require.NoError(t, err)
	assert.Len(t, report.Entries, 4)

	loaded, err := f.svc.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Prices, 2)
	assert.Len(t, loaded.Entries, 4)

	result, err := f.svc.Bill(ctx, report.ID, "kasse@corps.de")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@corps.de"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost@corps.de", result.Failed[0].ID)
	assert.ErrorIs(t, result.Failed[0].Err, txdomain.ErrMemberNotFound)

	drinks, err := f.txs.ListByType(ctx, txdomain.TypeDrinks)
	require.NoError(t, err)
	require.Len(t, drinks, 1)
	assert.Equal(t, "-4.60", drinks[0].Amount.String())
	assert.Equal(t, "Getränkeabrechnung 06.05.2025", drinks[0].Description)

	_, err = f.svc.Bill(ctx, report.ID, "kasse@corps.de")
	assert.ErrorIs(t, err, domain.ErrAlreadyBilled)

	reports, err := f.svc.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NotNil(t, reports[0].BilledAt)
}

func TestCreateReportRejectsEmpty(t *testing.T) {
	f := setup(t, "beverage_empty", assortment())
	_, err := f.svc.CreateReport(context.Background(), domain.CreateReportRequest{
		ReportDate: time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC),
		Members:    map[string]map[string]int{"a@corps.de": {"Sekt": 2}},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyReport)

	_, err = f.svc.GetReport(context.Background(), snowflake.ID(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateReportWithoutAssortment(t *testing.T) {
	f := setup(t, "beverage_no_assortment", nil)
	_, err := f.svc.Assortment()
	assert.ErrorIs(t, err, domain.ErrNoAssortment)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMembers struct {
	memberdomain.Service
	members []*memberdomain.Member
}

func (s stubMembers) LoadAllMembers(context.Context) ([]*memberdomain.Member, error) {
	return s.members, nil
}

func newService(now time.Time, members ...*memberdomain.Member) *Service {
	return New(Params{
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(now),
		Members: stubMembers{members: members},
	}).(*Service)
}

func debtor() *memberdomain.Member {
	return &memberdomain.Member{
		Email:    "d@corps.de",
		LastName: "Schuld",
		TitleHistory: history.New(history.Entry[memberdomain.Title]{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Value: memberdomain.TitleInactiveMember,
		}),
		Transactions: []txdomain.Transaction{
			{Date: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), Amount: money.MustParse("-250.00"), Type: txdomain.TypeDrinks},
		},
	}
}

func TestDebtorsReferenceDate(t *testing.T) {
	svc := newService(time.Date(2025, 5, 7, 12, 0, 0, 0, time.UTC), debtor())

	report, err := svc.Debtors(context.Background(), "01.04.2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), report.ReferenceDate)
	require.Len(t, report.Debtors, 1)
	assert.Equal(t, "iaCB Schuld", report.Debtors[0].DisplayName)
	assert.Equal(t, "0.00", report.Debtors[0].BalanceAtReference.String())

	for _, raw := range []string{"", "2025-04-01", "31.02.2025"} {
		report, err = svc.Debtors(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), report.ReferenceDate, raw)
		assert.Equal(t, "-250.00", report.Debtors[0].BalanceAtReference.String())
	}
}

func TestDebtTrendDefaultsToNow(t *testing.T) {
	svc := newService(time.Date(2025, 5, 7, 12, 0, 0, 0, time.UTC), debtor())

	points, err := svc.DebtTrend(context.Background(), time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, "2025-05", points[len(points)-1].Label)
	assert.Equal(t, "-250.00", points[len(points)-1].Total.String())
}

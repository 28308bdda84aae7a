package domain

import (
	"testing"
	"time"

	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func member(email, lastName string, title memberdomain.Title, txs ...txdomain.Transaction) *memberdomain.Member {
	return &memberdomain.Member{
		Email:        email,
		LastName:     lastName,
		CreatedAt:    day(2023, 1, 1),
		TitleHistory: history.New(history.Entry[memberdomain.Title]{Date: day(2023, 1, 1), Value: title}),
		Transactions: txs,
	}
}

func tx(date time.Time, amount string, t txdomain.Type) txdomain.Transaction {
	return txdomain.Transaction{Date: date, Amount: money.MustParse(amount), Type: t}
}

func TestComputeTrend(t *testing.T) {
	members := []*memberdomain.Member{
		member("a@corps.de", "A", memberdomain.TitleFox,
			tx(day(2025, 3, 1), "-15.00", txdomain.TypeMonthlyFee),
			tx(day(2025, 4, 1), "-15.00", txdomain.TypeMonthlyFee),
		),
		member("b@corps.de", "B", memberdomain.TitleFox,
			tx(day(2025, 4, 1), "-12.50", txdomain.TypeMonthlyFee),
			tx(day(2025, 4, 20), "30.00", txdomain.TypeCredit),
		),
	}

	points := ComputeTrend(members, day(2025, 5, 7))
	require.Len(t, points, TrendMonths+1)
	assert.Equal(t, "2023-05", points[0].Label)
	assert.True(t, points[0].Delta.IsZero())

	last := points[len(points)-1]
	assert.Equal(t, "2025-05", last.Label)
	assert.Equal(t, "-12.50", last.Total.String())
	assert.Equal(t, "30.00", last.Delta.String())

	april := points[len(points)-2]
	assert.Equal(t, "-42.50", april.Total.String())
	assert.Equal(t, "-27.50", april.Delta.String())
}

func TestComputeDebtors(t *testing.T) {
	members := []*memberdomain.Member{
		member("small@corps.de", "Klein", memberdomain.TitleFox, tx(day(2025, 1, 1), "-100.00", txdomain.TypeFine)),
		member("mid@corps.de", "Mitte", memberdomain.TitleActiveMember,
			tx(day(2024, 12, 1), "50.00", txdomain.TypeCredit),
			tx(day(2025, 2, 1), "-200.00", txdomain.TypeDrinks),
		),
		member("big@corps.de", "Gross", memberdomain.TitleAlumnus, tx(day(2025, 3, 1), "-300.00", txdomain.TypeCustom)),
	}

	debtors := ComputeDebtors(members, day(2025, 5, 7), day(2025, 2, 1))
	require.Len(t, debtors, 2)

	assert.Equal(t, "AH Gross", debtors[0].DisplayName)
	assert.Equal(t, "-300.00", debtors[0].Balance.String())
	assert.Equal(t, "0.00", debtors[0].BalanceAtReference.String())
	assert.Nil(t, debtors[0].LastCreditDate)

	assert.Equal(t, "CB Mitte", debtors[1].DisplayName)
	assert.Equal(t, "-150.00", debtors[1].BalanceAtReference.String())
	require.NotNil(t, debtors[1].LastCreditDate)
	assert.Equal(t, day(2024, 12, 1), *debtors[1].LastCreditDate)
}

func TestComputeDebtorsIgnoresFutureEntries(t *testing.T) {
	members := []*memberdomain.Member{
		member("later@corps.de", "Spaeter", memberdomain.TitleActiveMember, tx(day(2025, 12, 1), "-150.00", txdomain.TypeFine)),
	}

	assert.Empty(t, ComputeDebtors(members, day(2025, 5, 7), day(2025, 5, 1)))

	debtors := ComputeDebtors(members, day(2025, 12, 1), day(2025, 5, 1))
	require.Len(t, debtors, 1)
	assert.Equal(t, "-150.00", debtors[0].Balance.String())
}

package domain

import (
	"context"
	"sort"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
)

// TrendMonths is how far back DebtTrend reaches.
const TrendMonths = 24

// DebtorThreshold is the balance below which a member counts as a debtor.
var DebtorThreshold = money.MustParse("-100.00")

type TrendPoint struct {
	Label string      `json:"label"`
	Date  time.Time   `json:"date"`
	Total money.Money `json:"total"`
	Delta money.Money `json:"delta"`
}

type Debtor struct {
	Email              string      `json:"email"`
	DisplayName        string      `json:"display_name"`
	Balance            money.Money `json:"balance"`
	BalanceAtReference money.Money `json:"balance_at_reference"`
	LastCreditDate     *time.Time  `json:"last_credit_date,omitempty"`
}

type DebtorReport struct {
	ReferenceDate time.Time `json:"reference_date"`
	Debtors       []Debtor  `json:"debtors"`
}

type Service interface {
	DebtTrend(ctx context.Context, asOf time.Time) ([]TrendPoint, error)
	Debtors(ctx context.Context, reference string) (DebtorReport, error)
}

// ComputeTrend sums every member's balance on the first of each month, from
// TrendMonths before asOf's month up to it.
func ComputeTrend(members []*memberdomain.Member, asOf time.Time) []TrendPoint {
	last := calendar.FirstOfMonth(asOf)
	months := calendar.Months(calendar.AddMonths(last, -TrendMonths), last)

	points := make([]TrendPoint, 0, len(months))
	for i, month := range months {
		total := money.Zero
		for _, m := range members {
			total = total.Add(m.BalanceAsOf(month))
		}
		delta := money.Zero
		if i > 0 {
			delta = total.Sub(points[i-1].Total)
		}
		points = append(points, TrendPoint{
			Label: month.Format("2006-01"),
			Date:  month,
			Total: total,
			Delta: delta,
		})
	}
	return points
}

// ComputeDebtors lists members whose balance as of today is below
// DebtorThreshold, largest debt first. Entries dated after today are ignored.
func ComputeDebtors(members []*memberdomain.Member, today, reference time.Time) []Debtor {
	var out []Debtor
	for _, m := range members {
		balance := m.BalanceAsOf(today)
		if !balance.LessThan(DebtorThreshold) {
			continue
		}
		d := Debtor{
			Email:              m.Email,
			DisplayName:        displayName(m),
			Balance:            balance,
			BalanceAtReference: m.BalanceAsOf(reference),
		}
		if last, ok := m.LastCreditDate(); ok {
			d.LastCreditDate = &last
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance.LessThan(out[j].Balance)
	})
	return out
}

func displayName(m *memberdomain.Member) string {
	title, err := m.CurrentTitle()
	if err != nil {
		return m.LastName
	}
	return string(title) + " " + m.LastName
}

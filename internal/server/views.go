package server

import (
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

type historyEntryView[T any] struct {
	Date  string `json:"date"`
	Value T      `json:"value"`
}

type memberView struct {
	Email            string                                 `json:"email"`
	LastName         string                                 `json:"last_name"`
	FirstName        string                                 `json:"first_name"`
	StartBalance     money.Money                            `json:"start_balance"`
	Balance          money.Money                            `json:"balance"`
	CreatedAt        string                                 `json:"created_at"`
	Title            memberdomain.Title                     `json:"title,omitempty"`
	TitleLabel       string                                 `json:"title_label,omitempty"`
	Resident         bool                                   `json:"resident"`
	TitleHistory     []historyEntryView[memberdomain.Title] `json:"title_history,omitempty"`
	ResidencyHistory []historyEntryView[bool]               `json:"resident_history,omitempty"`
	Transactions     []txdomain.Transaction                 `json:"transactions,omitempty"`
}

// newMemberView renders m with its balance as of today. Histories and
// transactions are only included when full is set.
func newMemberView(m *memberdomain.Member, today time.Time, full bool) memberView {
	v := memberView{
		Email:        m.Email,
		LastName:     m.LastName,
		FirstName:    m.FirstName,
		StartBalance: m.StartBalance,
		Balance:      m.BalanceAsOf(today),
		CreatedAt:    calendar.FormatISO(m.CreatedAt),
	}
	if title, err := m.CurrentTitle(); err == nil {
		v.Title = title
		v.TitleLabel = title.Label()
	}
	if resident, err := m.CurrentResidency(); err == nil {
		v.Resident = resident
	}
	if full {
		v.TitleHistory = historyView(m.TitleHistory.Entries())
		v.ResidencyHistory = historyView(m.ResidencyHistory.Entries())
		v.Transactions = m.Transactions
	}
	return v
}

func historyView[T comparable](entries []history.Entry[T]) []historyEntryView[T] {
	out := make([]historyEntryView[T], 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryView[T]{Date: calendar.FormatISO(e.Date), Value: e.Value})
	}
	return out
}

package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
)

const (
	TemplateBalanceReport = "balance_report"
	timestampLayout       = "02.01.2006 15:04"
)

type Row struct {
	Date        time.Time   `json:"date"`
	Amount      money.Money `json:"amount"`
	Description string      `json:"description"`
	DateText    string      `json:"date_text"`
	AmountText  string      `json:"amount_text"`
}

// BalanceReport is the account overview mailed to a member.
type BalanceReport struct {
	Email          string      `json:"email"`
	Title          string      `json:"title"`
	LastName       string      `json:"last_name"`
	FirstName      string      `json:"first_name"`
	Balance        money.Money `json:"balance"`
	BalanceText    string      `json:"balance_text"`
	Rows           []Row       `json:"rows"`
	TreasurerPhone string      `json:"treasurer_phone,omitempty"`
	GeneratedAt    time.Time   `json:"generated_at"`
	GeneratedText  string      `json:"generated_text"`
	Subject        string      `json:"subject"`
}

func (r BalanceReport) EmailSubject() string { return r.Subject }

// Statement is a rendered PDF ready for download.
type Statement struct {
	Filename string
	Content  []byte
}

type Service interface {
	Build(ctx context.Context, email string) (BalanceReport, error)
	Send(ctx context.Context, email string) error
	SendAll(ctx context.Context) batch.Result
	Statement(ctx context.Context, email string) (Statement, error)
}

// Build lays out the member's ledger oldest first.
func Build(m *memberdomain.Member, now time.Time, currency, treasurerPhone string) BalanceReport {
	rows := make([]Row, 0, len(m.Transactions))
	for _, tx := range m.Transactions {
		rows = append(rows, Row{
			Date:        calendar.Day(tx.Date),
			Amount:      tx.Amount,
			Description: tx.Description,
			DateText:    tx.Date.Format(calendar.ShortDate),
			AmountText:  FormatAmount(tx.Amount, currency),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	title := ""
	if t, err := m.CurrentTitle(); err == nil {
		title = string(t)
	}
	balance := m.BalanceAsOf(now)
	return BalanceReport{
		Email:          m.Email,
		Title:          title,
		LastName:       m.LastName,
		FirstName:      m.FirstName,
		Balance:        balance,
		BalanceText:    FormatAmount(balance, currency),
		Rows:           rows,
		TreasurerPhone: treasurerPhone,
		GeneratedAt:    now,
		GeneratedText:  now.Format(timestampLayout),
		Subject:        "Kontostand vom " + now.Format(calendar.GermanDate),
	}
}

// FormatAmount renders m the German way, e.g. "-12,50 €".
func FormatAmount(m money.Money, currency string) string {
	out := strings.Replace(m.String(), ".", ",", 1)
	if currency = strings.TrimSpace(currency); currency != "" {
		out += " " + currency
	}
	return out
}

// StatementFilename builds a download name such as "kontoauszug-cb-muster-2025-05-07.pdf".
func StatementFilename(r BalanceReport) string {
	return slug.MakeLang("kontoauszug "+r.Title+" "+r.LastName, "de") + "-" + r.GeneratedAt.Format(calendar.ISODate) + ".pdf"
}

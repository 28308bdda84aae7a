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

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12,50 €", FormatAmount(money.MustParse("12.5"), "€"))
	assert.Equal(t, "-1234,00 €", FormatAmount(money.MustParse("-1234"), "€"))
	assert.Equal(t, "0,00", FormatAmount(money.Zero, ""))
}

func TestBuildSortsRowsAndFormats(t *testing.T) {
	m := &memberdomain.Member{
		Email:        "m@corps.de",
		LastName:     "Müller",
		StartBalance: money.MustParse("5.00"),
		TitleHistory: history.New(history.Entry[memberdomain.Title]{Date: day(2024, 1, 1), Value: memberdomain.TitleActiveMember}),
		Transactions: []txdomain.Transaction{
			{Date: day(2025, 5, 1), Amount: money.MustParse("-15.00"), Description: "Monatsbeitrag (Mai 2025)"},
			{Date: day(2025, 4, 1), Amount: money.MustParse("-15.00"), Description: "Monatsbeitrag (April 2025)"},
		},
	}

	r := Build(m, time.Date(2025, 5, 7, 9, 30, 0, 0, time.UTC), "€", "0170 1234567")
	require.Len(t, r.Rows, 2)
	assert.Equal(t, "01.04.25", r.Rows[0].DateText)
	assert.Equal(t, "-15,00 €", r.Rows[0].AmountText)
	assert.Equal(t, "-25,00 €", r.BalanceText)
	assert.Equal(t, "CB", r.Title)
	assert.Equal(t, "Kontostand vom 07.05.2025", r.EmailSubject())
	assert.Equal(t, "07.05.2025 09:30", r.GeneratedText)
	assert.Equal(t, "kontoauszug-cb-mueller-2025-05-07.pdf", StatementFilename(r))
}

func TestBuildBalanceExcludesFutureEntries(t *testing.T) {
	m := &memberdomain.Member{
		Email:        "m@corps.de",
		LastName:     "Müller",
		StartBalance: money.MustParse("5.00"),
		Transactions: []txdomain.Transaction{
			{Date: day(2025, 5, 1), Amount: money.MustParse("-15.00"), Description: "Monatsbeitrag (Mai 2025)"},
			{Date: day(2025, 12, 1), Amount: money.MustParse("-150.00"), Description: "Strafe"},
		},
	}

	r := Build(m, time.Date(2025, 5, 7, 9, 30, 0, 0, time.UTC), "€", "")
	assert.Len(t, r.Rows, 2)
	assert.Equal(t, "-10.00", r.Balance.String())
	assert.Equal(t, "-10,00 €", r.BalanceText)
}

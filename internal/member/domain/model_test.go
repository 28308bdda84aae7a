package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/smallbiznis/corpsledger/internal/history"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseTitle(t *testing.T) {
	for raw, want := range map[string]Title{
		"F":    TitleFox,
		"cb":   TitleActiveMember,
		"IACB": TitleInactiveMember,
		" ah ": TitleAlumnus,
	} {
		got, err := ParseTitle(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseTitle("Senior")
	assert.ErrorIs(t, err, ErrInvalidTitle)
}

func TestTitleAsOfFollowsHistory(t *testing.T) {
	m := Member{
		TitleHistory: history.New(
			history.Entry[Title]{Date: day(2023, 1, 1), Value: TitleFox},
			history.Entry[Title]{Date: day(2024, 6, 1), Value: TitleActiveMember},
		),
	}

	got, err := m.TitleAsOf(day(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, TitleFox, got)

	got, err = m.TitleAsOf(day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, TitleActiveMember, got)

	current, err := m.CurrentTitle()
	require.NoError(t, err)
	assert.Equal(t, TitleActiveMember, current)

	_, err = m.ResidencyAsOf(day(2024, 1, 1))
	assert.ErrorIs(t, err, history.ErrEmptyHistory)
}

func TestBalanceRoundTripIgnoresInsertOrder(t *testing.T) {
	amounts := []string{"-15.00", "-12.50", "20.00", "-3.35", "0.10", "-0.05", "100.00"}
	txs := make([]txdomain.Transaction, 0, len(amounts))
	sum := money.Zero
	for i, a := range amounts {
		amount := money.MustParse(a)
		sum = sum.Add(amount)
		txs = append(txs, txdomain.Transaction{Date: day(2025, time.Month(i+1), 1), Amount: amount})
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(txs), func(i, j int) { txs[i], txs[j] = txs[j], txs[i] })
		m := Member{StartBalance: money.MustParse("10.00"), Transactions: txs}
		assert.Equal(t, money.MustParse("10.00").Add(sum).String(), m.BalanceAsOf(day(2025, 12, 31)).String())
		assert.Equal(t, "-5.00", m.BalanceAsOf(day(2025, 1, 1)).String())
		assert.Equal(t, "10.00", m.BalanceAsOf(day(2024, 12, 31)).String())
	}
}

func TestBalanceAsOfCutsOffByDate(t *testing.T) {
	m := Member{
		StartBalance: money.MustParse("5.00"),
		Transactions: []txdomain.Transaction{
			{Date: day(2025, 3, 1), Amount: money.MustParse("-15.00")},
			{Date: day(2025, 4, 1), Amount: money.MustParse("-15.00")},
		},
	}
	assert.Equal(t, "5.00", m.BalanceAsOf(day(2025, 2, 28)).String())
	assert.Equal(t, "-10.00", m.BalanceAsOf(day(2025, 3, 1)).String())
	assert.Equal(t, "-25.00", m.BalanceAsOf(time.Date(2025, 4, 1, 23, 0, 0, 0, time.UTC)).String())
	// pure read
	assert.Equal(t, "-25.00", m.BalanceAsOf(day(2025, 4, 1)).String())
}

func TestLastCreditDate(t *testing.T) {
	m := Member{}
	_, ok := m.LastCreditDate()
	assert.False(t, ok)

	m.Transactions = []txdomain.Transaction{
		{Date: day(2025, 1, 10), Type: txdomain.TypeCredit},
		{Date: day(2025, 3, 10), Type: txdomain.TypeFine},
		{Date: day(2025, 2, 10), Type: txdomain.TypeCredit},
	}
	last, ok := m.LastCreditDate()
	require.True(t, ok)
	assert.Equal(t, day(2025, 2, 10), last)
}

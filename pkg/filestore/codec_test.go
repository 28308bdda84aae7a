package filestore

import (
	"bytes"
	"strings"
	"testing"
	"time"

	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "Fox@Corps.de": {
    "last_name": "Fuchs",
    "first_name": "Felix",
    "start_balance": -10.5,
    "created_at": "2024-10-01",
    "title_history": {"2024-10-01": "f", "2025-03-15": "CB"},
    "resident_history": {"2024-10-01": true, "2025-04-01": false},
    "transactions": [
      {"date": "2025-01-01", "description": "Monatsbeitrag (Januar 2025)", "amount": -15.00, "type": "monthly-fee"},
      {"date": "2025-01-20", "description": "Überweisung", "amount": 50, "type": "3"},
      {"date": "2025-02-02", "description": "Kiste", "amount": -4.2}
    ]
  }
}`

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDecode(t *testing.T) {
	members, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, members, 1)

	m := members[0]
	assert.Equal(t, "fox@corps.de", m.Email)
	assert.Equal(t, "-10.50", m.StartBalance.String())
	assert.Equal(t, day(2024, 10, 1), m.CreatedAt)

	title, err := m.TitleAsOf(day(2025, 3, 14))
	require.NoError(t, err)
	assert.Equal(t, memberdomain.TitleFox, title)
	title, err = m.CurrentTitle()
	require.NoError(t, err)
	assert.Equal(t, memberdomain.TitleActiveMember, title)

	resident, err := m.CurrentResidency()
	require.NoError(t, err)
	assert.False(t, resident)

	require.Len(t, m.Transactions, 3)
	assert.Equal(t, txdomain.TypeMonthlyFee, m.Transactions[0].Type)
	assert.Equal(t, txdomain.TypeCredit, m.Transactions[1].Type)
	assert.Equal(t, txdomain.TypeCustom, m.Transactions[2].Type)
	assert.Equal(t, "20.30", m.BalanceAsOf(day(2025, 5, 7)).String())
}

func TestDecodeRejectsBadDates(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"a@b.de":{"last_name":"A","transactions":[{"date":"01.02.2025","amount":1}]}}`))
	require.Error(t, err)

	_, err = Decode(strings.NewReader(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestEncodeWritesIsoDatesAndTwoDecimals(t *testing.T) {
	members, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, members))
	out := buf.String()

	assert.Contains(t, out, `"fox@corps.de": {`)
	assert.Contains(t, out, `"start_balance": -10.50`)
	assert.Contains(t, out, `"2025-03-15": "CB"`)
	assert.Contains(t, out, `"2025-04-01": false`)
	assert.Contains(t, out, `"amount": -4.20`)
	assert.Contains(t, out, `"type": "credit"`)

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, members[0].BalanceAsOf(day(2025, 5, 7)).String(), again[0].BalanceAsOf(day(2025, 5, 7)).String())
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"1":             TypeCustom,
		"2":             TypeDrinks,
		"3":             TypeCredit,
		"4":             TypeFine,
		"5":             TypeReimbursement,
		"monthly-fee":   TypeMonthlyFee,
		" Credit ":      TypeCredit,
		"REIMBURSEMENT": TypeReimbursement,
	}
	for raw, want := range cases {
		got, err := ParseType(raw)
		assert.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "6", "0", "monthly fee"} {
		_, err := ParseType(raw)
		assert.ErrorIs(t, err, ErrInvalidType, raw)
	}
}

func TestTypeLabels(t *testing.T) {
	assert.Equal(t, "Monatsbeitrag", TypeMonthlyFee.Label())
	assert.Equal(t, "Rückerstattung (AaA)", TypeReimbursement.Label())
	assert.Equal(t, "Getränkeabrechnung", TypeDrinks.Label())
	assert.Len(t, Types(), 6)
}

func TestBookingDate(t *testing.T) {
	d := time.Date(2025, 3, 15, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), TypeMonthlyFee.BookingDate(d))
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), TypeFine.BookingDate(d))
}

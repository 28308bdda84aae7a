package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/money"
)

// Type classifies a transaction. It never changes after creation.
type Type string

const (
	TypeCustom        Type = "custom"
	TypeDrinks        Type = "drinks"
	TypeCredit        Type = "credit"
	TypeFine          Type = "fine"
	TypeReimbursement Type = "reimbursement"
	TypeMonthlyFee    Type = "monthly-fee"
)

var types = []Type{TypeCustom, TypeDrinks, TypeCredit, TypeFine, TypeReimbursement, TypeMonthlyFee}

// legacyCodes are the numeric type codes of older exports.
var legacyCodes = map[string]Type{
	"1": TypeCustom,
	"2": TypeDrinks,
	"3": TypeCredit,
	"4": TypeFine,
	"5": TypeReimbursement,
}

// Types lists every transaction type in display order.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

// ParseType accepts a type name or a legacy numeric code.
func ParseType(raw string) (Type, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := legacyCodes[value]; ok {
		return t, nil
	}
	for _, t := range types {
		if string(t) == value {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

func (t Type) Label() string {
	switch t {
	case TypeCustom:
		return "Beliebig"
	case TypeDrinks:
		return "Getränkeabrechnung"
	case TypeCredit:
		return "Gutschrift"
	case TypeFine:
		return "Strafe"
	case TypeReimbursement:
		return "Rückerstattung (AaA)"
	case TypeMonthlyFee:
		return "Monatsbeitrag"
	default:
		return string(t)
	}
}

// BookingDate is the day a transaction of type t dated d is stored under.
// Monthly fees always land on the first of their month.
func (t Type) BookingDate(d time.Time) time.Time {
	if t == TypeMonthlyFee {
		return calendar.FirstOfMonth(d)
	}
	return calendar.Day(d)
}

// Transaction is one signed ledger line of a member. Debits are negative.
type Transaction struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	MemberEmail string       `json:"member_email"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
	Amount      money.Money  `json:"amount"`
	Type        Type         `json:"type"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

// Snapshot is the audit and event representation of a transaction.
func (t Transaction) Snapshot() map[string]any {
	return map[string]any{
		"id":           t.ID.String(),
		"member_email": t.MemberEmail,
		"date":         calendar.FormatISO(t.Date),
		"description":  t.Description,
		"amount":       t.Amount.String(),
		"type":         string(t.Type),
	}
}

// Normalize pins the date to its UTC day, since drivers hand dates back in varying zones.
func (t *Transaction) Normalize() {
	t.Date = calendar.Day(t.Date)
}

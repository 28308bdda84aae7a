package domain

import (
	"fmt"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/config"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

// FeeSchedule supplies the monthly contribution per residency class.
type FeeSchedule interface {
	ResidentFee() (money.Money, error)
	NonResidentFee() (money.Money, error)
}

// Candidate is a monthly fee that should exist but does not.
type Candidate struct {
	MemberEmail string        `json:"email"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	Amount      money.Money   `json:"amount"`
	Type        txdomain.Type `json:"type"`
}

// MissingMonthlyFees walks every month from the member's first month up to
// the month of asOf and returns the fees absent from existing, oldest first.
// Title and residency are read on the first of each month. Nothing is persisted.
func MissingMonthlyFees(m *memberdomain.Member, existing []txdomain.Transaction, schedule FeeSchedule, asOf time.Time, lang string) ([]Candidate, error) {
	if m == nil || m.CreatedAt.IsZero() || asOf.IsZero() {
		return nil, calendar.ErrInvalidDate
	}
	first := calendar.FirstOfMonth(m.CreatedAt)
	last := calendar.FirstOfMonth(asOf)
	if first.After(last) {
		return nil, ErrInvalidRange
	}

	residentFee, err := schedule.ResidentFee()
	if err != nil {
		return nil, err
	}
	nonResidentFee, err := schedule.NonResidentFee()
	if err != nil {
		return nil, err
	}

	present := make(map[time.Time]struct{})
	for _, tx := range existing {
		if tx.Type == txdomain.TypeMonthlyFee {
			present[calendar.FirstOfMonth(tx.Date)] = struct{}{}
		}
	}

	var out []Candidate
	for month := first; !month.After(last); month = calendar.AddMonths(month, 1) {
		if _, ok := present[month]; ok {
			continue
		}
		title, err := m.TitleAsOf(month)
		if err != nil {
			return nil, err
		}
		resident, err := m.ResidencyAsOf(month)
		if err != nil {
			return nil, err
		}
		fee, err := feeFor(title, resident, residentFee, nonResidentFee)
		if err != nil {
			return nil, err
		}
		if fee.IsZero() {
			continue
		}
		out = append(out, Candidate{
			MemberEmail: m.Email,
			Date:        month,
			Description: FeeDescription(month, lang),
			Amount:      fee.Neg(),
			Type:        txdomain.TypeMonthlyFee,
		})
	}
	return out, nil
}

func feeFor(title memberdomain.Title, resident bool, residentFee, nonResidentFee money.Money) (money.Money, error) {
	switch title {
	case memberdomain.TitleAlumnus:
		return money.Zero, nil
	case memberdomain.TitleFox, memberdomain.TitleActiveMember, memberdomain.TitleInactiveMember:
		if resident {
			return residentFee, nil
		}
		return nonResidentFee, nil
	default:
		return money.Zero, memberdomain.ErrInvalidTitle
	}
}

// FeeDescription labels the fee for month, e.g. "Monatsbeitrag (Mai 2025)".
func FeeDescription(month time.Time, lang string) string {
	if lang == config.LanguageEnglish {
		return fmt.Sprintf("Monthly contribution (%s %d)", month.Month(), month.Year())
	}
	return fmt.Sprintf("Monatsbeitrag (%s %d)", calendar.GermanMonthName(month), month.Year())
}

package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/money"
)

// Report is one counting of the drinks list, with the prices valid on that day.
type Report struct {
	ID         snowflake.ID `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	ReportDate time.Time    `json:"report_date"`
	BilledAt   *time.Time   `json:"billed_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`

	Prices  []Price `json:"prices" gorm:"-"`
	Entries []Entry `json:"entries" gorm:"-"`
}

func (Report) TableName() string { return "beverage_reports" }

type Price struct {
	ReportID     snowflake.ID `json:"-" gorm:"primaryKey;autoIncrement:false"`
	BeverageName string       `json:"beverage" gorm:"primaryKey"`
	Price        money.Money  `json:"price"`
}

func (Price) TableName() string { return "beverage_report_prices" }

// Entry counts one beverage for either a member or an event.
type Entry struct {
	ID           snowflake.ID `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	ReportID     snowflake.ID `json:"-"`
	IsEvent      bool         `json:"is_event"`
	MemberEmail  *string      `json:"email,omitempty"`
	EventTitle   *string      `json:"event_title,omitempty"`
	BeverageName string       `json:"beverage"`
	Count        int          `json:"count"`
}

func (Entry) TableName() string { return "beverage_entries" }

// Total is what one member or event drank in a report.
type Total struct {
	Key    string      `json:"key"`
	Amount money.Money `json:"amount"`
}

// MemberTotals sums count times snapshot price per member, ordered by email.
func MemberTotals(r *Report) []Total {
	return totals(r, false)
}

// EventTotals sums the event entries per event title.
func EventTotals(r *Report) []Total {
	return totals(r, true)
}

func totals(r *Report, events bool) []Total {
	prices := make(map[string]money.Money, len(r.Prices))
	for _, p := range r.Prices {
		prices[p.BeverageName] = p.Price
	}

	sums := make(map[string]money.Money)
	for _, e := range r.Entries {
		if e.IsEvent != events {
			continue
		}
		var key string
		switch {
		case events && e.EventTitle != nil:
			key = *e.EventTitle
		case !events && e.MemberEmail != nil:
			key = *e.MemberEmail
		default:
			continue
		}
		price, ok := prices[e.BeverageName]
		if !ok {
			continue
		}
		sums[key] = sums[key].Add(price.MulInt(int64(e.Count)))
	}

	out := make([]Total, 0, len(sums))
	for key, amount := range sums {
		out = append(out, Total{Key: key, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// BillingDescription is the ledger text for a report, e.g. "Getränkeabrechnung 07.05.2025".
func BillingDescription(reportDate time.Time) string {
	return "Getränkeabrechnung " + reportDate.Format(calendar.GermanDate)
}

package domain

import (
	"strings"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/history"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

// Title is a member's standing in the Corps.
type Title string

const (
	TitleFox            Title = "F"
	TitleActiveMember   Title = "CB"
	TitleInactiveMember Title = "iaCB"
	TitleAlumnus        Title = "AH"
)

var titles = []Title{TitleFox, TitleActiveMember, TitleInactiveMember, TitleAlumnus}

const (
	DefaultTitle    = TitleFox
	DefaultResident = true
)

func Titles() []Title {
	out := make([]Title, len(titles))
	copy(out, titles)
	return out
}

// ParseTitle matches a title code case-insensitively.
func ParseTitle(raw string) (Title, error) {
	value := strings.TrimSpace(raw)
	for _, t := range titles {
		if strings.EqualFold(string(t), value) {
			return t, nil
		}
	}
	return "", ErrInvalidTitle
}

func (t Title) Label() string {
	switch t {
	case TitleFox:
		return "Fux"
	case TitleActiveMember:
		return "Corpsbursche"
	case TitleInactiveMember:
		return "inaktiver Corpsbursche"
	case TitleAlumnus:
		return "Alter Herr"
	default:
		return string(t)
	}
}

// Member is the aggregate of a member row, both attribute histories and the member's ledger.
type Member struct {
	Email        string
	LastName     string
	FirstName    string
	StartBalance money.Money
	CreatedAt    time.Time

	TitleHistory     history.AttributeHistory[Title]
	ResidencyHistory history.AttributeHistory[bool]
	Transactions     []txdomain.Transaction
}

func (m *Member) TitleAsOf(date time.Time) (Title, error) {
	return m.TitleHistory.ValueAsOf(date)
}

func (m *Member) CurrentTitle() (Title, error) {
	return m.TitleHistory.Latest()
}

func (m *Member) ResidencyAsOf(date time.Time) (bool, error) {
	return m.ResidencyHistory.ValueAsOf(date)
}

func (m *Member) CurrentResidency() (bool, error) {
	return m.ResidencyHistory.Latest()
}

// BalanceAsOf is the start balance plus every transaction dated on or before date.
func (m *Member) BalanceAsOf(date time.Time) money.Money {
	cutoff := calendar.Day(date)
	balance := m.StartBalance
	for _, tx := range m.Transactions {
		if !calendar.Day(tx.Date).After(cutoff) {
			balance = balance.Add(tx.Amount)
		}
	}
	return balance
}

// LastCreditDate returns the date of the most recent credit transaction.
func (m *Member) LastCreditDate() (time.Time, bool) {
	var (
		last  time.Time
		found bool
	)
	for _, tx := range m.Transactions {
		if tx.Type != txdomain.TypeCredit {
			continue
		}
		if !found || tx.Date.After(last) {
			last = calendar.Day(tx.Date)
			found = true
		}
	}
	return last, found
}

// TransactionsOfType returns the member's transactions of type t in stored order.
func (m *Member) TransactionsOfType(t txdomain.Type) []txdomain.Transaction {
	var out []txdomain.Transaction
	for _, tx := range m.Transactions {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// NormalizeEmail is the canonical form of the member key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Record is the members table row.
type Record struct {
	Email        string `gorm:"primaryKey"`
	LastName     string
	FirstName    string
	StartBalance money.Money
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Record) TableName() string { return "members" }

type TitleRecord struct {
	MemberEmail string
	ChangedAt   time.Time
	Title       Title
}

func (TitleRecord) TableName() string { return "title_history" }

type ResidencyRecord struct {
	MemberEmail string
	ChangedAt   time.Time
	IsResident  bool
}

func (ResidencyRecord) TableName() string { return "resident_history" }

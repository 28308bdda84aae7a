package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/money"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Item is one expense a member asks to have reimbursed.
type Item struct {
	ID              snowflake.ID  `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	MemberEmail     string        `json:"email"`
	Description     string        `json:"description"`
	Date            time.Time     `json:"date"`
	Amount          money.Money   `json:"amount"`
	ReceiptFilename string        `json:"receipt_filename,omitempty"`
	Status          Status        `json:"status"`
	TransactionID   *snowflake.ID `json:"transaction_id,omitempty,string"`
	CreatedAt       time.Time     `json:"created_at"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
}

func (Item) TableName() string { return "reimbursement_items" }

type BankDetails struct {
	MemberEmail string    `json:"email" gorm:"primaryKey"`
	BankName    string    `json:"bank_name"`
	IBAN        string    `json:"iban" gorm:"column:iban"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BankDetails) TableName() string { return "bank_details" }

// Masked returns a copy safe to show outside the admin area.
func (b BankDetails) Masked() BankDetails {
	b.IBAN = MaskIBAN(b.IBAN)
	return b
}

// NormalizeIBAN strips whitespace and upper-cases.
func NormalizeIBAN(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// ValidIBAN checks shape only: country code, check digits, 11 to 30 alphanumerics.
func ValidIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i, r := range iban {
		switch {
		case i < 2:
			if r < 'A' || r > 'Z' {
				return false
			}
		case i < 4:
			if r < '0' || r > '9' {
				return false
			}
		default:
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

// MaskIBAN keeps the country code and the last four characters.
func MaskIBAN(iban string) string {
	if len(iban) <= 6 {
		return strings.Repeat("*", len(iban))
	}
	return iban[:2] + strings.Repeat("*", len(iban)-6) + iban[len(iban)-4:]
}

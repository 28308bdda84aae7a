package migration

import (
	"time"

	"github.com/smallbiznis/corpsledger/internal/money"
	"gorm.io/datatypes"
)

// Table models mirror migrations/*.sql for the dialects golang-migrate does not cover here.

type memberRow struct {
	Email        string      `gorm:"primaryKey;type:varchar(254)"`
	LastName     string      `gorm:"type:varchar(128);not null;index:idx_members_name,priority:1"`
	FirstName    string      `gorm:"type:varchar(128);not null;default:'';index:idx_members_name,priority:2"`
	StartBalance money.Money `gorm:"not null;default:0"`
	CreatedAt    time.Time   `gorm:"not null"`
	UpdatedAt    time.Time   `gorm:"not null"`
}

func (memberRow) TableName() string { return "members" }

type titleHistoryRow struct {
	MemberEmail string    `gorm:"primaryKey;type:varchar(254)"`
	ChangedAt   time.Time `gorm:"primaryKey;type:date"`
	Title       string    `gorm:"type:varchar(8);not null"`
}

func (titleHistoryRow) TableName() string { return "title_history" }

type residentHistoryRow struct {
	MemberEmail string    `gorm:"primaryKey;type:varchar(254)"`
	ChangedAt   time.Time `gorm:"primaryKey;type:date"`
	IsResident  bool      `gorm:"not null"`
}

func (residentHistoryRow) TableName() string { return "resident_history" }

type transactionRow struct {
	ID          int64       `gorm:"primaryKey;autoIncrement:false"`
	MemberEmail string      `gorm:"type:varchar(254);not null;index:idx_transactions_member_type,priority:1;index:idx_transactions_member_date,priority:1"`
	Date        time.Time   `gorm:"type:date;not null;index:idx_transactions_member_date,priority:2"`
	Description string      `gorm:"type:text;not null"`
	Amount      money.Money `gorm:"not null"`
	Type        string      `gorm:"type:varchar(32);not null;index:idx_transactions_member_type,priority:2"`
	CreatedAt   time.Time   `gorm:"not null"`
	UpdatedAt   time.Time   `gorm:"not null"`
}

func (transactionRow) TableName() string { return "transactions" }

type attributeChangeRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Kind        string    `gorm:"type:varchar(32);not null;index:idx_attribute_changes_subject,priority:1"`
	MemberEmail string    `gorm:"type:varchar(254);not null;index:idx_attribute_changes_subject,priority:2"`
	NewValue    string    `gorm:"type:varchar(64);not null"`
	ChangedBy   string    `gorm:"type:varchar(254);not null"`
	ChangedAt   time.Time `gorm:"not null;index:idx_attribute_changes_subject,priority:3"`
}

func (attributeChangeRow) TableName() string { return "attribute_changes" }

type transactionChangeRow struct {
	ID            int64             `gorm:"primaryKey;autoIncrement:false"`
	TransactionID int64             `gorm:"not null"`
	MemberEmail   string            `gorm:"type:varchar(254);not null;index:idx_transaction_change_log_member,priority:1"`
	Action        string            `gorm:"type:varchar(16);not null"`
	ChangedBy     string            `gorm:"type:varchar(254);not null"`
	Description   string            `gorm:"type:text;not null"`
	Snapshot      datatypes.JSONMap `gorm:"type:json"`
	ChangedAt     time.Time         `gorm:"not null;index:idx_transaction_change_log_member,priority:2"`
}

func (transactionChangeRow) TableName() string { return "transaction_change_log" }

type reimbursementItemRow struct {
	ID              int64       `gorm:"primaryKey;autoIncrement:false"`
	MemberEmail     string      `gorm:"type:varchar(254);not null"`
	Description     string      `gorm:"type:text;not null"`
	Date            time.Time   `gorm:"type:date;not null"`
	Amount          money.Money `gorm:"not null"`
	ReceiptFilename string      `gorm:"type:varchar(255);not null;default:''"`
	Status          string      `gorm:"type:varchar(16);not null;default:'pending';index:idx_reimbursement_items_status,priority:1"`
	TransactionID   *int64
	CreatedAt       time.Time `gorm:"not null;index:idx_reimbursement_items_status,priority:2"`
	ApprovedAt      *time.Time
}

func (reimbursementItemRow) TableName() string { return "reimbursement_items" }

type bankDetailsRow struct {
	MemberEmail string    `gorm:"primaryKey;type:varchar(254)"`
	BankName    string    `gorm:"type:varchar(128);not null"`
	IBAN        string    `gorm:"column:iban;type:varchar(34);not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (bankDetailsRow) TableName() string { return "bank_details" }

type beverageReportRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement:false"`
	ReportDate time.Time `gorm:"type:date;not null"`
	BilledAt   *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

func (beverageReportRow) TableName() string { return "beverage_reports" }

type beverageReportPriceRow struct {
	ReportID     int64       `gorm:"primaryKey;autoIncrement:false"`
	BeverageName string      `gorm:"primaryKey;type:varchar(64)"`
	Price        money.Money `gorm:"not null"`
}

func (beverageReportPriceRow) TableName() string { return "beverage_report_prices" }

type beverageEntryRow struct {
	ID           int64   `gorm:"primaryKey;autoIncrement:false"`
	ReportID     int64   `gorm:"not null;index:idx_beverage_entries_report"`
	IsEvent      bool    `gorm:"not null;default:false"`
	MemberEmail  *string `gorm:"type:varchar(254)"`
	EventTitle   *string `gorm:"type:varchar(128)"`
	BeverageName string  `gorm:"type:varchar(64);not null"`
	Count        int     `gorm:"not null"`
}

func (beverageEntryRow) TableName() string { return "beverage_entries" }

func tables() []any {
	return []any{
		&memberRow{},
		&titleHistoryRow{},
		&residentHistoryRow{},
		&transactionRow{},
		&attributeChangeRow{},
		&transactionChangeRow{},
		&reimbursementItemRow{},
		&bankDetailsRow{},
		&beverageReportRow{},
		&beverageReportPriceRow{},
		&beverageEntryRow{},
	}
}

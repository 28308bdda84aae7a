package domain

import (
	"context"

	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"gorm.io/gorm"
)

// Repository reads and writes member rows and histories. An empty email
// on the list methods selects every member.
type Repository interface {
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Record, error)
	ListRecords(ctx context.Context, db *gorm.DB) ([]Record, error)
	Insert(ctx context.Context, db *gorm.DB, rec *Record) error
	UpdateProfile(ctx context.Context, db *gorm.DB, rec *Record) error

	ListTitles(ctx context.Context, db *gorm.DB, email string) ([]TitleRecord, error)
	ListResidency(ctx context.Context, db *gorm.DB, email string) ([]ResidencyRecord, error)
	ListTransactions(ctx context.Context, db *gorm.DB, email string) ([]txdomain.Transaction, error)

	UpsertTitle(ctx context.Context, db *gorm.DB, rec *TitleRecord) error
	UpsertResidency(ctx context.Context, db *gorm.DB, rec *ResidencyRecord) error

	// ReplaceLedger drops the histories and transactions of email before the caller rewrites them.
	ReplaceLedger(ctx context.Context, db *gorm.DB, email string) error
	InsertTransactions(ctx context.Context, db *gorm.DB, txs []txdomain.Transaction) error
}

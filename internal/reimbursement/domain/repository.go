package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertItem(ctx context.Context, db *gorm.DB, item *Item) error
	FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Item, error)
	ListItems(ctx context.Context, db *gorm.DB, email string, status Status) ([]Item, error)
	// MarkApproved only moves a pending item and reports whether it did.
	MarkApproved(ctx context.Context, db *gorm.DB, id, txID snowflake.ID, at time.Time) (bool, error)
	UpsertBankDetails(ctx context.Context, db *gorm.DB, details *BankDetails) error
	FindBankDetails(ctx context.Context, db *gorm.DB, email string) (*BankDetails, error)
}

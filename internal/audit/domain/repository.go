package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	LatestAttributeChange(ctx context.Context, db *gorm.DB, kind Kind, email string) (*AttributeChange, error)
	InsertAttributeChange(ctx context.Context, db *gorm.DB, entry *AttributeChange) error
	DeleteAttributeChange(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListAttributeChanges(ctx context.Context, db *gorm.DB, email string, kind Kind) ([]AttributeChange, error)

	InsertTransactionChange(ctx context.Context, db *gorm.DB, entry *TransactionChange) error
	ListTransactionChanges(ctx context.Context, db *gorm.DB, email string) ([]TransactionChange, error)
}

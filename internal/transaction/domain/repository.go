package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tx *Transaction) error
	Update(ctx context.Context, db *gorm.DB, tx *Transaction) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID, email string) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	ListByMember(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Transaction, error)
	ListByType(ctx context.Context, db *gorm.DB, t Type) ([]Transaction, error)
	MemberExists(ctx context.Context, db *gorm.DB, email string) (bool, error)
}

// Cursor is the (date, id) of the last row already returned.
type Cursor struct {
	Date time.Time
	ID   snowflake.ID
}

// ListFilter selects a member's transactions, newest first.
type ListFilter struct {
	MemberEmail string
	Type        Type
	Before      *Cursor
	Limit       int
}

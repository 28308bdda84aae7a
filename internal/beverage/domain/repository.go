package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertReport(ctx context.Context, db *gorm.DB, r *Report) error
	InsertPrices(ctx context.Context, db *gorm.DB, prices []Price) error
	InsertEntries(ctx context.Context, db *gorm.DB, entries []Entry) error
	FindReport(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Report, error)
	ListReports(ctx context.Context, db *gorm.DB) ([]Report, error)
	ListPrices(ctx context.Context, db *gorm.DB, reportID snowflake.ID) ([]Price, error)
	ListEntries(ctx context.Context, db *gorm.DB, reportID snowflake.ID) ([]Entry, error)
	// MarkBilled claims an unbilled report and reports whether it did.
	MarkBilled(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}

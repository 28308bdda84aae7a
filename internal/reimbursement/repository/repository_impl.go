package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/reimbursement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.Item) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO reimbursement_items (id, member_email, description, date, amount, receipt_filename, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.MemberEmail,
		item.Description,
		item.Date,
		item.Amount,
		item.ReceiptFilename,
		item.Status,
		item.CreatedAt,
	).Error
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_email, description, date, amount, receipt_filename, status, transaction_id, created_at, approved_at
		FROM reimbursement_items
		WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	item.Date = calendar.Day(item.Date)
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, email string, status domain.Status) ([]domain.Item, error) {
	var items []domain.Item
	stmt := db.WithContext(ctx).Model(&domain.Item{})
	if email != "" {
		stmt = stmt.Where("member_email = ?", email)
	}
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if err := stmt.Order("created_at, id").Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Date = calendar.Day(items[i].Date)
	}
	return items, nil
}

func (r *repo) MarkApproved(ctx context.Context, db *gorm.DB, id, txID snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE reimbursement_items
		SET status = ?, transaction_id = ?, approved_at = ?
		WHERE id = ? AND status = ?`,
		domain.StatusApproved,
		txID,
		at,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpsertBankDetails(ctx context.Context, db *gorm.DB, details *domain.BankDetails) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"bank_name", "iban", "updated_at"}),
	}).Create(details).Error
}

func (r *repo) FindBankDetails(ctx context.Context, db *gorm.DB, email string) (*domain.BankDetails, error) {
	var details domain.BankDetails
	err := db.WithContext(ctx).Raw(
		`SELECT member_email, bank_name, iban, updated_at FROM bank_details WHERE member_email = ?`,
		email,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	if details.MemberEmail == "" {
		return nil, nil
	}
	return &details, nil
}

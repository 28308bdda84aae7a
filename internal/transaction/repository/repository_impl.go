package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	if tx == nil {
		return errors.New("transaction is nil")
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (id, member_email, date, description, amount, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.MemberEmail,
		tx.Date,
		tx.Description,
		tx.Amount,
		tx.Type,
		tx.CreatedAt,
		tx.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`UPDATE transactions
		SET date = ?, description = ?, amount = ?, updated_at = ?
		WHERE id = ? AND member_email = ?`,
		tx.Date,
		tx.Description,
		tx.Amount,
		tx.UpdatedAt,
		tx.ID,
		tx.MemberEmail,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID, email string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM transactions WHERE id = ? AND member_email = ?`,
		id, email,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_email, date, description, amount, type, created_at, updated_at
		FROM transactions
		WHERE id = ?`,
		id,
	).Scan(&tx).Error
	if err != nil {
		return nil, err
	}
	if tx.ID == 0 {
		return nil, nil
	}
	tx.Normalize()
	return &tx, nil
}

func (r *repo) ListByMember(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Transaction, error) {
	var items []domain.Transaction
	stmt := db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("member_email = ?", filter.MemberEmail)

	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Before != nil {
		stmt = stmt.Where("(date < ?) OR (date = ? AND id < ?)",
			filter.Before.Date,
			filter.Before.Date,
			filter.Before.ID,
		)
	}

	stmt = stmt.Order("date desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, t domain.Type) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_email, date, description, amount, type, created_at, updated_at
		FROM transactions
		WHERE type = ?
		ORDER BY date DESC, id DESC`,
		t,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

func (r *repo) MemberExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM members WHERE email = ?`, email).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LatestAttributeChange(ctx context.Context, db *gorm.DB, kind domain.Kind, email string) (*domain.AttributeChange, error) {
	var entry domain.AttributeChange
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, member_email, new_value, changed_by, changed_at
		FROM attribute_changes
		WHERE kind = ? AND member_email = ?
		ORDER BY changed_at DESC, id DESC
		LIMIT 1`,
		kind, email,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) InsertAttributeChange(ctx context.Context, db *gorm.DB, entry *domain.AttributeChange) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO attribute_changes (id, kind, member_email, new_value, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Kind,
		entry.MemberEmail,
		entry.NewValue,
		entry.ChangedBy,
		entry.ChangedAt,
	).Error
}

func (r *repo) DeleteAttributeChange(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM attribute_changes WHERE id = ?`, id).Error
}

func (r *repo) ListAttributeChanges(ctx context.Context, db *gorm.DB, email string, kind domain.Kind) ([]domain.AttributeChange, error) {
	var entries []domain.AttributeChange
	stmt := db.WithContext(ctx).Model(&domain.AttributeChange{}).Where("member_email = ?", email)
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	if err := stmt.Order("changed_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) InsertTransactionChange(ctx context.Context, db *gorm.DB, entry *domain.TransactionChange) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO transaction_change_log (
			id, transaction_id, member_email, action, changed_by, description, snapshot, changed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TransactionID,
		entry.MemberEmail,
		entry.Action,
		entry.ChangedBy,
		entry.Description,
		entry.Snapshot,
		entry.ChangedAt,
	).Error
}

func (r *repo) ListTransactionChanges(ctx context.Context, db *gorm.DB, email string) ([]domain.TransactionChange, error) {
	var entries []domain.TransactionChange
	err := db.WithContext(ctx).
		Model(&domain.TransactionChange{}).
		Where("member_email = ?", email).
		Order("changed_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

package repository

import (
	"context"

	"github.com/smallbiznis/corpsledger/internal/member/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Record, error) {
	var rec domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT email, last_name, first_name, start_balance, created_at, updated_at
		FROM members
		WHERE email = ?`,
		email,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.Email == "" {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	var recs []domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT email, last_name, first_name, start_balance, created_at, updated_at
		FROM members
		ORDER BY last_name, first_name, email`,
	).Scan(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (email, last_name, first_name, start_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Email,
		rec.LastName,
		rec.FirstName,
		rec.StartBalance,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Error
}

// UpdateProfile never touches created_at.
func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members
		SET last_name = ?, first_name = ?, start_balance = ?, updated_at = ?
		WHERE email = ?`,
		rec.LastName,
		rec.FirstName,
		rec.StartBalance,
		rec.UpdatedAt,
		rec.Email,
	).Error
}

func (r *repo) ListTitles(ctx context.Context, db *gorm.DB, email string) ([]domain.TitleRecord, error) {
	var recs []domain.TitleRecord
	stmt := db.WithContext(ctx).Model(&domain.TitleRecord{})
	if email != "" {
		stmt = stmt.Where("member_email = ?", email)
	}
	if err := stmt.Order("member_email, changed_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ListResidency(ctx context.Context, db *gorm.DB, email string) ([]domain.ResidencyRecord, error) {
	var recs []domain.ResidencyRecord
	stmt := db.WithContext(ctx).Model(&domain.ResidencyRecord{})
	if email != "" {
		stmt = stmt.Where("member_email = ?", email)
	}
	if err := stmt.Order("member_email, changed_at").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, email string) ([]txdomain.Transaction, error) {
	var txs []txdomain.Transaction
	stmt := db.WithContext(ctx).Model(&txdomain.Transaction{})
	if email != "" {
		stmt = stmt.Where("member_email = ?", email)
	}
	if err := stmt.Order("date, id").Find(&txs).Error; err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Normalize()
	}
	return txs, nil
}

// UpsertTitle replaces any entry recorded for the same day.
func (r *repo) UpsertTitle(ctx context.Context, db *gorm.DB, rec *domain.TitleRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_email"}, {Name: "changed_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"title"}),
	}).Create(rec).Error
}

func (r *repo) UpsertResidency(ctx context.Context, db *gorm.DB, rec *domain.ResidencyRecord) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_email"}, {Name: "changed_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_resident"}),
	}).Create(rec).Error
}

func (r *repo) ReplaceLedger(ctx context.Context, db *gorm.DB, email string) error {
	for _, stmt := range []string{
		`DELETE FROM title_history WHERE member_email = ?`,
		`DELETE FROM resident_history WHERE member_email = ?`,
		`DELETE FROM transactions WHERE member_email = ?`,
	} {
		if err := db.WithContext(ctx).Exec(stmt, email).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertTransactions(ctx context.Context, db *gorm.DB, txs []txdomain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(txs, 200).Error
}

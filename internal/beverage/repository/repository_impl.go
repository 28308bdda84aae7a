package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/beverage/domain"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertReport(ctx context.Context, db *gorm.DB, rep *domain.Report) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO beverage_reports (id, report_date, created_at) VALUES (?, ?, ?)`,
		rep.ID,
		rep.ReportDate,
		rep.CreatedAt,
	).Error
}

func (r *repo) InsertPrices(ctx context.Context, db *gorm.DB, prices []domain.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&prices).Error
}

func (r *repo) InsertEntries(ctx context.Context, db *gorm.DB, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(&entries, 200).Error
}

func (r *repo) FindReport(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Report, error) {
	var rep domain.Report
	err := db.WithContext(ctx).Raw(
		`SELECT id, report_date, billed_at, created_at FROM beverage_reports WHERE id = ?`,
		id,
	).Scan(&rep).Error
	if err != nil {
		return nil, err
	}
	if rep.ID == 0 {
		return nil, nil
	}
	rep.ReportDate = calendar.Day(rep.ReportDate)
	return &rep, nil
}

func (r *repo) ListReports(ctx context.Context, db *gorm.DB) ([]domain.Report, error) {
	var reps []domain.Report
	err := db.WithContext(ctx).Raw(
		`SELECT id, report_date, billed_at, created_at FROM beverage_reports ORDER BY report_date DESC, id DESC`,
	).Scan(&reps).Error
	if err != nil {
		return nil, err
	}
	for i := range reps {
		reps[i].ReportDate = calendar.Day(reps[i].ReportDate)
	}
	return reps, nil
}

func (r *repo) ListPrices(ctx context.Context, db *gorm.DB, reportID snowflake.ID) ([]domain.Price, error) {
	var prices []domain.Price
	err := db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("beverage_name").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, reportID snowflake.ID) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("is_event, member_email, event_title, beverage_name").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) MarkBilled(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE beverage_reports SET billed_at = ? WHERE id = ? AND billed_at IS NULL`,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

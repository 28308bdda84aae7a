package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/batch"
)

// EventCounts is the drinks consumed at one event, keyed by beverage.
type EventCounts struct {
	Title  string         `json:"title"`
	Counts map[string]int `json:"counts"`
}

type CreateReportRequest struct {
	ReportDate time.Time
	// Members maps member email to beverage counts.
	Members map[string]map[string]int
	Events  []EventCounts
}

type Service interface {
	Assortment() ([]Price, error)
	CreateReport(ctx context.Context, req CreateReportRequest) (*Report, error)
	GetReport(ctx context.Context, id snowflake.ID) (*Report, error)
	ListReports(ctx context.Context) ([]Report, error)
	Bill(ctx context.Context, id snowflake.ID, actor string) (batch.Result, error)
}

var (
	ErrNotFound      = errors.New("beverage_report_not_found")
	ErrAlreadyBilled = errors.New("beverage_report_already_billed")
	ErrNoAssortment  = errors.New("beverage_assortment_empty")
	ErrEmptyReport   = errors.New("beverage_report_empty")
)

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/beverage/domain"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Ledger        *config.LedgerConfigHolder
	Repo          domain.Repository
	Transactions  txdomain.Service
	LedgerMetrics *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	ledger        *config.LedgerConfigHolder
	repo          domain.Repository
	transactions  txdomain.Service
	ledgerMetrics *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("beverage.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		ledger:        p.Ledger,
		repo:          p.Repo,
		transactions:  p.Transactions,
		ledgerMetrics: p.LedgerMetrics,
	}
}

// Assortment returns the configured beverages and their current prices.
func (s *Service) Assortment() ([]domain.Price, error) {
	cfg, err := s.ledger.Get()
	if err != nil {
		return nil, err
	}
	if len(cfg.Beverages) == 0 {
		return nil, domain.ErrNoAssortment
	}
	out := make([]domain.Price, 0, len(cfg.Beverages))
	for _, b := range cfg.Beverages {
		out = append(out, domain.Price{BeverageName: b.Name, Price: b.Price})
	}
	return out, nil
}

// CreateReport snapshots the current prices and stores every positive count
// for a known beverage.
func (s *Service) CreateReport(ctx context.Context, req domain.CreateReportRequest) (*domain.Report, error) {
	if req.ReportDate.IsZero() {
		return nil, calendar.ErrInvalidDate
	}
	assortment, err := s.Assortment()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(assortment))
	for _, p := range assortment {
		known[p.BeverageName] = struct{}{}
	}

	report := &domain.Report{
		ID:         s.genID.Generate(),
		ReportDate: calendar.Day(req.ReportDate),
		CreatedAt:  s.clock.Now().UTC(),
	}
	for _, p := range assortment {
		p.ReportID = report.ID
		report.Prices = append(report.Prices, p)
	}

	emails := make([]string, 0, len(req.Members))
	for email := range req.Members {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, raw := range emails {
		email := memberdomain.NormalizeEmail(raw)
		if email == "" {
			continue
		}
		for _, name := range sortedKeys(req.Members[raw]) {
			count := req.Members[raw][name]
			if _, ok := known[name]; !ok || count <= 0 {
				continue
			}
			report.Entries = append(report.Entries, domain.Entry{
				ID:           s.genID.Generate(),
				ReportID:     report.ID,
				MemberEmail:  &email,
				BeverageName: name,
				Count:        count,
			})
		}
	}
	for _, ev := range req.Events {
		title := strings.TrimSpace(ev.Title)
		if title == "" {
			continue
		}
		for _, name := range sortedKeys(ev.Counts) {
			count := ev.Counts[name]
			if _, ok := known[name]; !ok || count <= 0 {
				continue
			}
			report.Entries = append(report.Entries, domain.Entry{
				ID:           s.genID.Generate(),
				ReportID:     report.ID,
				IsEvent:      true,
				EventTitle:   &title,
				BeverageName: name,
				Count:        count,
			})
		}
	}
	if len(report.Entries) == 0 {
		return nil, domain.ErrEmptyReport
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertReport(ctx, tx, report); err != nil {
			return err
		}
		if err := s.repo.InsertPrices(ctx, tx, report.Prices); err != nil {
			return err
		}
		return s.repo.InsertEntries(ctx, tx, report.Entries)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}

	s.log.Info("beverage.report.created",
		zap.String("report_id", report.ID.String()),
		zap.String("report_date", calendar.FormatISO(report.ReportDate)),
		zap.Int("entries", len(report.Entries)),
	)
	return report, nil
}

func (s *Service) GetReport(ctx context.Context, id snowflake.ID) (*domain.Report, error) {
	report, err := s.repo.FindReport(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	if report.Prices, err = s.repo.ListPrices(ctx, s.db, id); err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if report.Entries, err = s.repo.ListEntries(ctx, s.db, id); err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	return report, nil
}

func (s *Service) ListReports(ctx context.Context) ([]domain.Report, error) {
	reports, err := s.repo.ListReports(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	return reports, nil
}

// Bill books one drinks transaction per member of the report. A report is
// billed once; members whose booking fails are returned as failures.
func (s *Service) Bill(ctx context.Context, id snowflake.ID, actor string) (batch.Result, error) {
	var result batch.Result

	report, err := s.GetReport(ctx, id)
	if err != nil {
		return result, err
	}
	claimed, err := s.repo.MarkBilled(ctx, s.db, id, s.clock.Now().UTC())
	if err != nil {
		return result, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if !claimed {
		return result, domain.ErrAlreadyBilled
	}

	description := domain.BillingDescription(report.ReportDate)
	for _, total := range domain.MemberTotals(report) {
		if total.Amount.IsZero() {
			continue
		}
		_, err := s.transactions.Create(ctx, txdomain.CreateRequest{
			MemberEmail: total.Key,
			Date:        report.ReportDate,
			Description: description,
			Amount:      total.Amount.Neg(),
			Type:        txdomain.TypeDrinks,
			Actor:       actor,
		})
		if err != nil {
			result.Fail(total.Key, err)
			s.ledgerMetrics.IncBatchFailure("beverage_billing")
			continue
		}
		result.Ok(total.Key)
	}

	s.log.Info("beverage.report.billed",
		zap.String("report_id", id.String()),
		zap.Int("billed", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

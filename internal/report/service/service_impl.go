package service

import (
	"context"
	"fmt"
	"io"

	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	"github.com/smallbiznis/corpsledger/internal/providers/email"
	"github.com/smallbiznis/corpsledger/internal/providers/pdf"
	"github.com/smallbiznis/corpsledger/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Config        config.Config
	Ledger        *config.LedgerConfigHolder
	Members       memberdomain.Service
	Email         email.Provider
	PDF           pdf.Provider
	Metrics       *metrics.Metrics       `optional:"true"`
	LedgerMetrics *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	log           *zap.Logger
	clock         clock.Clock
	phone         string
	ledger        *config.LedgerConfigHolder
	members       memberdomain.Service
	email         email.Provider
	pdf           pdf.Provider
	metrics       *metrics.Metrics
	ledgerMetrics *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	return &Service{
		log:           p.Log.Named("report.service"),
		clock:         p.Clock,
		phone:         p.Config.Email.TreasurerPhone,
		ledger:        p.Ledger,
		members:       p.Members,
		email:         p.Email,
		pdf:           p.PDF,
		metrics:       p.Metrics,
		ledgerMetrics: p.LedgerMetrics,
	}
}

func (s *Service) Build(ctx context.Context, email string) (domain.BalanceReport, error) {
	m, err := s.members.LoadMember(ctx, email)
	if err != nil {
		return domain.BalanceReport{}, err
	}
	return s.build(m), nil
}

func (s *Service) Send(ctx context.Context, email string) error {
	m, err := s.members.LoadMember(ctx, email)
	if err != nil {
		return err
	}
	return s.send(ctx, s.build(m))
}

// SendAll mails every member their report. Failed deliveries are collected.
func (s *Service) SendAll(ctx context.Context) batch.Result {
	var result batch.Result

	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		result.Fail("*", err)
		return result
	}
	for _, m := range members {
		if err := s.send(ctx, s.build(m)); err != nil {
			result.Fail(m.Email, err)
			s.ledgerMetrics.IncBatchFailure("send_reports")
			continue
		}
		result.Ok(m.Email)
	}

	s.log.Info("report.send_all.finish",
		zap.Int("sent", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result
}

func (s *Service) Statement(ctx context.Context, email string) (domain.Statement, error) {
	report, err := s.Build(ctx, email)
	if err != nil {
		return domain.Statement{}, err
	}

	data := pdf.StatementData{
		Heading:        "Kontoauszug",
		MemberName:     report.Title + " " + report.LastName,
		MemberEmail:    report.Email,
		Balance:        report.BalanceText,
		GeneratedAt:    report.GeneratedText,
		TreasurerPhone: report.TreasurerPhone,
	}
	for _, row := range report.Rows {
		data.Rows = append(data.Rows, pdf.StatementRow{
			Date:        row.DateText,
			Amount:      row.AmountText,
			Description: row.Description,
		})
	}

	r, err := s.pdf.GenerateStatement(ctx, data)
	if err != nil {
		return domain.Statement{}, fmt.Errorf("render statement: %w", err)
	}
	var content []byte
	if r != nil {
		if content, err = io.ReadAll(r); err != nil {
			return domain.Statement{}, fmt.Errorf("render statement: %w", err)
		}
	}
	return domain.Statement{Filename: domain.StatementFilename(report), Content: content}, nil
}

func (s *Service) build(m *memberdomain.Member) domain.BalanceReport {
	currency := "€"
	if cfg, err := s.ledger.Get(); err == nil && cfg.Currency != "" {
		currency = cfg.Currency
	}
	return domain.Build(m, s.clock.Now(), currency, s.phone)
}

func (s *Service) send(ctx context.Context, report domain.BalanceReport) error {
	err := s.email.SendTemplate(ctx, []string{report.Email}, domain.TemplateBalanceReport, report)
	if err != nil {
		s.metrics.RecordReportSent(ctx, "failed")
		s.log.Warn("report.send.failed", zap.String("member_email", report.Email), zap.Error(err))
		return fmt.Errorf("send report: %w", err)
	}
	s.metrics.RecordReportSent(ctx, "sent")
	s.log.Info("report.send.finish", zap.String("member_email", report.Email), zap.Int("rows", len(report.Rows)))
	return nil
}

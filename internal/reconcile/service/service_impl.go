package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/config"
	"github.com/smallbiznis/corpsledger/internal/lock"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/internal/observability/logger"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	"github.com/smallbiznis/corpsledger/internal/reconcile/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Locker       lock.Locker
	Ledger       *config.LedgerConfigHolder
	Members      memberdomain.Service
	Transactions txdomain.Service
	Metrics      *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	clock        clock.Clock
	locker       lock.Locker
	ledger       *config.LedgerConfigHolder
	members      memberdomain.Service
	transactions txdomain.Service
	metrics      *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	return &Service{
		log:          p.Log.Named("reconcile.service"),
		clock:        p.Clock,
		locker:       p.Locker,
		ledger:       p.Ledger,
		members:      p.Members,
		transactions: p.Transactions,
		metrics:      p.Metrics,
	}
}

func (s *Service) Preview(ctx context.Context, email string, asOf time.Time) ([]domain.Candidate, error) {
	m, err := s.members.LoadMember(ctx, email)
	if err != nil {
		return nil, err
	}
	return domain.MissingMonthlyFees(m, m.Transactions, s.ledger, s.asOf(asOf), s.ledger.Language())
}

// PreviewAll lists the missing fees of every member. Members whose preview
// fails are logged and left out.
func (s *Service) PreviewAll(ctx context.Context, asOf time.Time) ([]domain.Candidate, error) {
	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	asOf = s.asOf(asOf)
	lang := s.ledger.Language()

	var out []domain.Candidate
	for _, m := range members {
		candidates, err := domain.MissingMonthlyFees(m, m.Transactions, s.ledger, asOf, lang)
		if errors.Is(err, config.ErrConfigMissing) {
			return nil, err
		}
		if err != nil {
			s.log.Warn("reconcile.preview.member_failed", zap.String("member_email", m.Email), zap.Error(err))
			continue
		}
		out = append(out, candidates...)
	}
	return out, nil
}

// ReconcileMember persists every missing monthly fee of one member while
// holding that member's reconcile lock. Fees rejected by the unique index
// count as present.
func (s *Service) ReconcileMember(ctx context.Context, email string, asOf time.Time, actor string) (domain.Summary, error) {
	email = memberdomain.NormalizeEmail(email)
	summary := domain.Summary{MemberEmail: email}
	log := logger.WithMember(logger.WithContext(ctx, s.log), email)

	unlock, err := s.locker.Lock(ctx, lock.MemberKey("reconcile", email))
	if err != nil {
		return summary, fmt.Errorf("reconcile lock: %w", err)
	}
	defer unlock()

	start := time.Now()
	err = s.reconcileLocked(ctx, email, s.asOf(asOf), actor, &summary)
	outcome := metrics.ReconcileOutcomeOK
	if err != nil {
		outcome = metrics.ReconcileOutcomeFailed
	}
	s.metrics.ObserveReconcile(outcome, time.Since(start), len(summary.Created), summary.Conflicted)

	if err != nil {
		log.Error("reconcile.member.failed", zap.Int("created", len(summary.Created)), zap.Error(err))
		return summary, err
	}
	log.Info("reconcile.member.finish",
		zap.Int("created", len(summary.Created)),
		zap.Int("conflicted", summary.Conflicted),
	)
	return summary, nil
}

func (s *Service) reconcileLocked(ctx context.Context, email string, asOf time.Time, actor string, summary *domain.Summary) error {
	m, err := s.members.LoadMember(ctx, email)
	if err != nil {
		return err
	}
	candidates, err := domain.MissingMonthlyFees(m, m.Transactions, s.ledger, asOf, s.ledger.Language())
	if err != nil {
		return err
	}

	for _, c := range candidates {
		tx, err := s.transactions.Create(ctx, txdomain.CreateRequest{
			MemberEmail: c.MemberEmail,
			Date:        c.Date,
			Description: c.Description,
			Amount:      c.Amount,
			Type:        c.Type,
			Actor:       actor,
		})
		if errors.Is(err, txdomain.ErrDuplicateMonthlyFee) {
			summary.Conflicted++
			continue
		}
		if err != nil {
			return fmt.Errorf("create fee %s: %w", calendar.FormatISO(c.Date), err)
		}
		summary.Created = append(summary.Created, *tx)
	}
	return nil
}

// ReconcileAll reconciles every member. One member failing does not stop the rest.
func (s *Service) ReconcileAll(ctx context.Context, asOf time.Time, actor string) batch.Result {
	var result batch.Result

	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		s.log.Error("reconcile.all.load_failed", zap.Error(err))
		result.Fail("*", err)
		s.metrics.IncBatchFailure("reconcile_all")
		return result
	}

	asOf = s.asOf(asOf)
	created := 0
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			result.Fail(m.Email, err)
			continue
		}
		summary, err := s.ReconcileMember(ctx, m.Email, asOf, actor)
		if err != nil {
			result.Fail(m.Email, err)
			s.metrics.IncBatchFailure("reconcile_all")
			continue
		}
		created += len(summary.Created)
		result.Ok(m.Email)
	}

	s.log.Info("reconcile.all.finish",
		zap.String("as_of", calendar.FormatISO(asOf)),
		zap.Int("members", len(members)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("created", created),
	)
	return result
}

// SaveMissingPayments stores admin-confirmed fees. Rows with a malformed
// date or amount are skipped; rows the store rejects are reported as failed.
func (s *Service) SaveMissingPayments(ctx context.Context, rows []domain.PaymentRow, actor string) domain.SaveResult {
	var result domain.SaveResult
	lang := s.ledger.Language()

	for _, row := range rows {
		email := memberdomain.NormalizeEmail(row.Email)
		date, err := calendar.ParseISO(row.Date)
		if err != nil || email == "" {
			result.Skipped++
			continue
		}
		amount, err := money.ParseStrict(strings.TrimSpace(row.Amount))
		if err != nil {
			result.Skipped++
			continue
		}

		_, err = s.transactions.Create(ctx, txdomain.CreateRequest{
			MemberEmail: email,
			Date:        date,
			Description: domain.FeeDescription(date, lang),
			Amount:      amount,
			Type:        txdomain.TypeMonthlyFee,
			Actor:       actor,
		})
		if errors.Is(err, txdomain.ErrDuplicateMonthlyFee) {
			result.Skipped++
			continue
		}
		if err != nil {
			result.Failed = append(result.Failed, batch.Failure{ID: email + "@" + row.Date, Err: err})
			s.metrics.IncBatchFailure("save_missing_payments")
			continue
		}
		result.Saved++
	}

	s.log.Info("reconcile.save_missing.finish",
		zap.Int("saved", result.Saved),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)),
	)
	return result
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return calendar.Day(s.clock.Now())
	}
	return calendar.Day(t)
}

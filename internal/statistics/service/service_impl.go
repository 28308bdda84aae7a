package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/statistics/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Members memberdomain.Service
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	members memberdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("statistics.service"),
		clock:   p.Clock,
		members: p.Members,
	}
}

func (s *Service) DebtTrend(ctx context.Context, asOf time.Time) ([]domain.TrendPoint, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeTrend(members, asOf), nil
}

// Debtors accepts a dd.mm.yyyy reference date. Blank or malformed input
// falls back to the first of the current month.
func (s *Service) Debtors(ctx context.Context, reference string) (domain.DebtorReport, error) {
	now := s.clock.Now()
	ref := calendar.FirstOfMonth(now)
	if raw := strings.TrimSpace(reference); raw != "" {
		parsed, err := calendar.ParseGerman(raw)
		if err != nil {
			s.log.Debug("statistics.debtors.invalid_reference", zap.String("reference", raw))
		} else {
			ref = parsed
		}
	}

	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		return domain.DebtorReport{}, err
	}
	return domain.DebtorReport{
		ReferenceDate: ref,
		Debtors:       domain.ComputeDebtors(members, calendar.Day(now), ref),
	}, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Locker  lock.Locker
	Repo    auditdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	locker  lock.Locker
	repo    auditdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		locker:  p.Locker,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// LogAttributeChange appends a title or residency change, skipping repeats
// and collapsing corrections made within the dedup window into one row.
func (s *Service) LogAttributeChange(ctx context.Context, kind auditdomain.Kind, email, newValue, actor string) (auditdomain.Outcome, error) {
	if !kind.Valid() {
		return "", auditdomain.ErrInvalidKind
	}
	email = normalizeEmail(email)
	if email == "" {
		return "", auditdomain.ErrInvalidEmail
	}

	unlock, err := s.locker.Lock(ctx, lock.MemberKey("audit:"+string(kind), email))
	if err != nil {
		return "", fmt.Errorf("lock audit subject: %w", err)
	}
	defer unlock()

	now := s.clock.Now().UTC()
	outcome := auditdomain.OutcomeInserted
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latest, err := s.repo.LatestAttributeChange(ctx, tx, kind, email)
		if err != nil {
			return err
		}
		if latest != nil {
			if latest.NewValue == newValue {
				outcome = auditdomain.OutcomeSkipped
				return nil
			}
			if now.Sub(latest.ChangedAt) < auditdomain.DedupWindow {
				if err := s.repo.DeleteAttributeChange(ctx, tx, latest.ID); err != nil {
					return err
				}
				outcome = auditdomain.OutcomeCollapsed
			}
		}

		return s.repo.InsertAttributeChange(ctx, tx, &auditdomain.AttributeChange{
			ID:          s.genID.Generate(),
			Kind:        kind,
			MemberEmail: email,
			NewValue:    newValue,
			ChangedBy:   actorOrSystem(actor),
			ChangedAt:   now,
		})
	})
	if err != nil {
		s.log.Warn("failed to write attribute change",
			zap.String("kind", string(kind)),
			zap.String("member_email", email),
			zap.Error(err),
		)
		return "", err
	}

	s.metrics.RecordAuditWrite(ctx, string(kind), string(outcome))
	s.log.Debug("audit.attribute_change",
		zap.String("kind", string(kind)),
		zap.String("member_email", email),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

func (s *Service) LogTransactionChange(ctx context.Context, in auditdomain.TransactionChangeInput) error {
	switch in.Action {
	case auditdomain.ActionCreate, auditdomain.ActionUpdate, auditdomain.ActionDelete:
	default:
		return auditdomain.ErrInvalidAction
	}

	var snapshot datatypes.JSONMap
	if len(in.Snapshot) > 0 {
		snapshot = datatypes.JSONMap(in.Snapshot)
	}

	entry := auditdomain.TransactionChange{
		ID:            s.genID.Generate(),
		TransactionID: in.TransactionID,
		MemberEmail:   normalizeEmail(in.MemberEmail),
		Action:        in.Action,
		ChangedBy:     actorOrSystem(in.Actor),
		Description:   strings.TrimSpace(in.Note),
		Snapshot:      snapshot,
		ChangedAt:     s.clock.Now().UTC(),
	}
	if err := s.repo.InsertTransactionChange(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write transaction change",
			zap.String("action", string(in.Action)),
			zap.Int64("transaction_id", in.TransactionID.Int64()),
			zap.Error(err),
		)
		return err
	}
	s.metrics.RecordAuditWrite(ctx, "transaction", string(in.Action))
	return nil
}

func (s *Service) ListAttributeChanges(ctx context.Context, email string, kind auditdomain.Kind) ([]auditdomain.AttributeChange, error) {
	if kind != "" && !kind.Valid() {
		return nil, auditdomain.ErrInvalidKind
	}
	return s.repo.ListAttributeChanges(ctx, s.db, normalizeEmail(email), kind)
}

func (s *Service) ListTransactionChanges(ctx context.Context, email string) ([]auditdomain.TransactionChange, error) {
	return s.repo.ListTransactionChanges(ctx, s.db, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func actorOrSystem(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return "system"
}

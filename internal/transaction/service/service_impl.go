package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/observability/metrics"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/smallbiznis/corpsledger/pkg/db"
	"github.com/smallbiznis/corpsledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      txdomain.Repository
	AuditSvc  auditdomain.Service
	Publisher events.Publisher
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      txdomain.Repository
	auditSvc  auditdomain.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func New(p Params) txdomain.Service {
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("transaction.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		auditSvc:  p.AuditSvc,
		publisher: publisher,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req txdomain.CreateRequest) (*txdomain.Transaction, error) {
	email := normalizeEmail(req.MemberEmail)
	if req.Date.IsZero() {
		return nil, calendar.ErrInvalidDate
	}
	typ, err := txdomain.ParseType(string(req.Type))
	if err != nil {
		return nil, err
	}
	req.Type = typ

	exists, err := s.repo.MemberExists(ctx, s.db, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if !exists {
		return nil, txdomain.ErrMemberNotFound
	}

	now := s.clock.Now().UTC()
	tx := txdomain.Transaction{
		ID:          s.genID.Generate(),
		MemberEmail: email,
		Date:        req.Type.BookingDate(req.Date),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Type:        req.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &tx); err != nil {
		if tx.Type == txdomain.TypeMonthlyFee && db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, txdomain.ErrDuplicateMonthlyFee)
		}
		s.log.Error("failed to insert transaction",
			zap.String("member_email", email),
			zap.String("type", string(tx.Type)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}

	s.afterWrite(ctx, tx, auditdomain.ActionCreate, events.KindTransactionCreated, req.Actor, "")
	return &tx, nil
}

func (s *Service) Update(ctx context.Context, req txdomain.UpdateRequest) (*txdomain.Transaction, error) {
	email := normalizeEmail(req.MemberEmail)

	var updated txdomain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, req.ID)
		if err != nil {
			return fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
		}
		if current == nil || current.MemberEmail != email {
			return txdomain.ErrNotFound
		}

		updated = *current
		if req.Date != nil {
			if req.Date.IsZero() {
				return calendar.ErrInvalidDate
			}
			updated.Date = updated.Type.BookingDate(*req.Date)
		}
		if req.Description != nil {
			updated.Description = strings.TrimSpace(*req.Description)
		}
		if req.Amount != nil {
			updated.Amount = *req.Amount
		}
		updated.UpdatedAt = s.clock.Now().UTC()

		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			if updated.Type == txdomain.TypeMonthlyFee && db.IsDuplicateKeyErr(err) {
				return fmt.Errorf("%w: %w", txdomain.ErrPersistence, txdomain.ErrDuplicateMonthlyFee)
			}
			return fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, updated, auditdomain.ActionUpdate, events.KindTransactionUpdated, req.Actor, req.Note)
	return &updated, nil
}

// Delete removes the row owned by email. A missing row or a foreign owner yields false without error.
func (s *Service) Delete(ctx context.Context, id snowflake.ID, email, actor string) (bool, error) {
	email = normalizeEmail(email)

	current, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}

	removed, err := s.repo.Delete(ctx, s.db, id, email)
	if err != nil {
		return false, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if removed == 0 {
		return false, nil
	}

	snapshot := txdomain.Transaction{ID: id, MemberEmail: email}
	if current != nil {
		snapshot = *current
	}
	s.afterWrite(ctx, snapshot, auditdomain.ActionDelete, events.KindTransactionDeleted, actor, "")
	return true, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*txdomain.Transaction, error) {
	tx, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	if tx == nil {
		return nil, txdomain.ErrNotFound
	}
	return tx, nil
}

func (s *Service) ListByMember(ctx context.Context, email string) ([]txdomain.Transaction, error) {
	items, err := s.repo.ListByMember(ctx, s.db, txdomain.ListFilter{MemberEmail: normalizeEmail(email)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	return items, nil
}

func (s *Service) ListByMemberPage(ctx context.Context, req txdomain.ListRequest) (txdomain.ListResponse, error) {
	filter := txdomain.ListFilter{
		MemberEmail: normalizeEmail(req.MemberEmail),
		Type:        req.Type,
		Limit:       req.Limit(),
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return txdomain.ListResponse{}, txdomain.ErrInvalidPageToken
		}
		filter.Before = cursor
	}

	items, err := s.repo.ListByMember(ctx, s.db, filter)
	if err != nil {
		return txdomain.ListResponse{}, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}

	page, info, err := pagination.Page(items, filter.Limit, func(t txdomain.Transaction) pagination.Cursor {
		return pagination.Cursor{ID: t.ID.String(), Date: calendar.FormatISO(t.Date)}
	})
	if err != nil {
		return txdomain.ListResponse{}, err
	}
	if page == nil {
		page = []txdomain.Transaction{}
	}
	return txdomain.ListResponse{PageInfo: info, Transactions: page}, nil
}

func (s *Service) ListByType(ctx context.Context, t txdomain.Type) ([]txdomain.Transaction, error) {
	if _, err := txdomain.ParseType(string(t)); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByType(ctx, s.db, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", txdomain.ErrPersistence, err)
	}
	return items, nil
}

// afterWrite records the audit row, metric and event for a committed write.
// Failures here are logged and never undo the write.
func (s *Service) afterWrite(ctx context.Context, tx txdomain.Transaction, action auditdomain.Action, kind events.Kind, actor, note string) {
	snapshot := tx.Snapshot()
	if err := s.auditSvc.LogTransactionChange(ctx, auditdomain.TransactionChangeInput{
		TransactionID: tx.ID,
		MemberEmail:   tx.MemberEmail,
		Action:        action,
		Actor:         actor,
		Note:          note,
		Snapshot:      snapshot,
	}); err != nil {
		s.log.Warn("transaction.audit.failed", zap.Int64("transaction_id", tx.ID.Int64()), zap.Error(err))
	}

	s.metrics.RecordTransaction(ctx, string(action), string(tx.Type))

	event := events.New(kind, tx.MemberEmail, s.clock.Now(), snapshot)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("transaction.event.publish_failed",
			zap.String("event_id", event.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func decodeCursor(token string) (*txdomain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	date, err := calendar.ParseISO(decoded.Date)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(decoded.ID), 10, 64)
	if err != nil || id == 0 {
		return nil, errors.New("invalid cursor id")
	}
	return &txdomain.Cursor{Date: date, ID: snowflake.ID(id)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}


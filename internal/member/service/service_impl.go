package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/history"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/internal/observability/logger"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     memberdomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     memberdomain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) memberdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("member.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) LoadMember(ctx context.Context, email string) (*memberdomain.Member, error) {
	email = memberdomain.NormalizeEmail(email)
	rec, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, persistence(err)
	}
	if rec == nil {
		return nil, memberdomain.ErrNotFound
	}

	titles, err := s.repo.ListTitles(ctx, s.db, email)
	if err != nil {
		return nil, persistence(err)
	}
	residency, err := s.repo.ListResidency(ctx, s.db, email)
	if err != nil {
		return nil, persistence(err)
	}
	txs, err := s.repo.ListTransactions(ctx, s.db, email)
	if err != nil {
		return nil, persistence(err)
	}
	return assemble(*rec, titles, residency, txs), nil
}

// LoadAllMembers reads every member in three bulk queries, ordered by last then first name.
func (s *Service) LoadAllMembers(ctx context.Context) ([]*memberdomain.Member, error) {
	recs, err := s.repo.ListRecords(ctx, s.db)
	if err != nil {
		return nil, persistence(err)
	}
	titles, err := s.repo.ListTitles(ctx, s.db, "")
	if err != nil {
		return nil, persistence(err)
	}
	residency, err := s.repo.ListResidency(ctx, s.db, "")
	if err != nil {
		return nil, persistence(err)
	}
	txs, err := s.repo.ListTransactions(ctx, s.db, "")
	if err != nil {
		return nil, persistence(err)
	}

	titlesBy := make(map[string][]memberdomain.TitleRecord)
	for _, t := range titles {
		titlesBy[t.MemberEmail] = append(titlesBy[t.MemberEmail], t)
	}
	residencyBy := make(map[string][]memberdomain.ResidencyRecord)
	for _, r := range residency {
		residencyBy[r.MemberEmail] = append(residencyBy[r.MemberEmail], r)
	}
	txsBy := make(map[string][]txdomain.Transaction)
	for _, tx := range txs {
		txsBy[tx.MemberEmail] = append(txsBy[tx.MemberEmail], tx)
	}

	members := make([]*memberdomain.Member, 0, len(recs))
	for _, rec := range recs {
		members = append(members, assemble(rec, titlesBy[rec.Email], residencyBy[rec.Email], txsBy[rec.Email]))
	}
	return members, nil
}

// SaveMember creates the member when missing, seeding both histories and their audit rows.
// For an existing member it updates the profile and routes title or residency changes
// through ChangeTitle and ChangeResidency.
func (s *Service) SaveMember(ctx context.Context, req memberdomain.SaveMemberRequest) (*memberdomain.Member, bool, error) {
	email := memberdomain.NormalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, false, memberdomain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, false, persistence(err)
	}
	if existing == nil {
		m, err := s.create(ctx, email, req)
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	}

	now := s.clock.Now().UTC()
	rec := *existing
	if name := strings.TrimSpace(req.LastName); name != "" {
		rec.LastName = name
	}
	if req.FirstName != nil {
		rec.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.StartBalance != nil {
		rec.StartBalance = *req.StartBalance
	}
	rec.UpdatedAt = now
	if err := s.repo.UpdateProfile(ctx, s.db, &rec); err != nil {
		return nil, false, persistence(err)
	}

	if req.Title != nil {
		if _, err := s.ChangeTitle(ctx, email, *req.Title, req.Actor); err != nil {
			return nil, false, err
		}
	}
	if req.Resident != nil {
		if _, err := s.ChangeResidency(ctx, email, *req.Resident, req.Actor); err != nil {
			return nil, false, err
		}
	}

	m, err := s.LoadMember(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return m, false, nil
}

func (s *Service) create(ctx context.Context, email string, req memberdomain.SaveMemberRequest) (*memberdomain.Member, error) {
	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		return nil, memberdomain.ErrInvalidName
	}

	title := memberdomain.DefaultTitle
	if req.Title != nil {
		if _, err := memberdomain.ParseTitle(string(*req.Title)); err != nil {
			return nil, err
		}
		title = *req.Title
	}
	resident := memberdomain.DefaultResident
	if req.Resident != nil {
		resident = *req.Resident
	}

	now := s.clock.Now().UTC()
	createdAt := now
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		createdAt = req.CreatedAt.UTC()
	}
	rec := memberdomain.Record{
		Email:     email,
		LastName:  lastName,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if req.FirstName != nil {
		rec.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.StartBalance != nil {
		rec.StartBalance = *req.StartBalance
	}

	effective := calendar.Day(createdAt)
	titleRec := memberdomain.TitleRecord{MemberEmail: email, ChangedAt: effective, Title: title}
	residencyRec := memberdomain.ResidencyRecord{MemberEmail: email, ChangedAt: effective, IsResident: resident}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &rec); err != nil {
			return err
		}
		if err := s.repo.UpsertTitle(ctx, tx, &titleRec); err != nil {
			return err
		}
		return s.repo.UpsertResidency(ctx, tx, &residencyRec)
	})
	if err != nil {
		return nil, persistence(err)
	}

	s.audit(ctx, auditdomain.KindTitle, email, string(title), req.Actor)
	s.audit(ctx, auditdomain.KindResidency, email, strconv.FormatBool(resident), req.Actor)

	s.log.Info("member.created",
		zap.String("member_email", email),
		zap.String("title", string(title)),
		zap.Bool("resident", resident),
	)
	return assemble(rec, []memberdomain.TitleRecord{titleRec}, []memberdomain.ResidencyRecord{residencyRec}, nil), nil
}

// ChangeTitle records title effective today. It reports false when the title is already current.
func (s *Service) ChangeTitle(ctx context.Context, email string, title memberdomain.Title, actor string) (bool, error) {
	if _, err := memberdomain.ParseTitle(string(title)); err != nil {
		return false, err
	}
	email = memberdomain.NormalizeEmail(email)

	if err := s.ensureExists(ctx, email); err != nil {
		return false, err
	}
	titles, err := s.repo.ListTitles(ctx, s.db, email)
	if err != nil {
		return false, persistence(err)
	}
	if n := len(titles); n > 0 && titles[n-1].Title == title {
		return false, nil
	}

	rec := memberdomain.TitleRecord{MemberEmail: email, ChangedAt: calendar.Day(s.clock.Now()), Title: title}
	if err := s.repo.UpsertTitle(ctx, s.db, &rec); err != nil {
		return false, persistence(err)
	}
	s.audit(ctx, auditdomain.KindTitle, email, string(title), actor)

	logger.WithMember(logger.WithContext(ctx, s.log), email).Info("member.title.changed", zap.String("title", string(title)))
	return true, nil
}

func (s *Service) ChangeResidency(ctx context.Context, email string, resident bool, actor string) (bool, error) {
	email = memberdomain.NormalizeEmail(email)

	if err := s.ensureExists(ctx, email); err != nil {
		return false, err
	}
	residency, err := s.repo.ListResidency(ctx, s.db, email)
	if err != nil {
		return false, persistence(err)
	}
	if n := len(residency); n > 0 && residency[n-1].IsResident == resident {
		return false, nil
	}

	rec := memberdomain.ResidencyRecord{MemberEmail: email, ChangedAt: calendar.Day(s.clock.Now()), IsResident: resident}
	if err := s.repo.UpsertResidency(ctx, s.db, &rec); err != nil {
		return false, persistence(err)
	}
	s.audit(ctx, auditdomain.KindResidency, email, strconv.FormatBool(resident), actor)

	logger.WithMember(logger.WithContext(ctx, s.log), email).Info("member.residency.changed", zap.Bool("resident", resident))
	return true, nil
}

func (s *Service) BulkChangeTitle(ctx context.Context, emails []string, title memberdomain.Title, actor string) batch.Result {
	var result batch.Result
	for _, email := range emails {
		email = memberdomain.NormalizeEmail(email)
		if email == "" {
			continue
		}
		if _, err := s.ChangeTitle(ctx, email, title, actor); err != nil {
			s.log.Warn("member.title.bulk_failed", zap.String("member_email", email), zap.Error(err))
			result.Fail(email, err)
			continue
		}
		result.Ok(email)
	}
	return result
}

func (s *Service) BalanceAsOf(ctx context.Context, email string, date time.Time) (money.Money, error) {
	m, err := s.LoadMember(ctx, email)
	if err != nil {
		return money.Zero, err
	}
	return m.BalanceAsOf(date), nil
}

// ImportMember overwrites a member with its histories and ledger, as read from an export.
// Transactions without an id get a fresh one. No audit rows are written.
func (s *Service) ImportMember(ctx context.Context, m *memberdomain.Member) error {
	if m == nil {
		return nil
	}
	email := memberdomain.NormalizeEmail(m.Email)
	if !validEmail(email) {
		return memberdomain.ErrInvalidEmail
	}
	if strings.TrimSpace(m.LastName) == "" {
		return memberdomain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	rec := memberdomain.Record{
		Email:        email,
		LastName:     strings.TrimSpace(m.LastName),
		FirstName:    strings.TrimSpace(m.FirstName),
		StartBalance: m.StartBalance,
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    now,
	}

	titles := m.TitleHistory.Entries()
	if len(titles) == 0 {
		titles = []history.Entry[memberdomain.Title]{{Date: calendar.Day(createdAt), Value: memberdomain.DefaultTitle}}
	}
	residency := m.ResidencyHistory.Entries()
	if len(residency) == 0 {
		residency = []history.Entry[bool]{{Date: calendar.Day(createdAt), Value: memberdomain.DefaultResident}}
	}

	txs := make([]txdomain.Transaction, 0, len(m.Transactions))
	for _, tx := range m.Transactions {
		if tx.ID == 0 {
			tx.ID = s.genID.Generate()
		}
		tx.MemberEmail = email
		if tx.Type == "" {
			tx.Type = txdomain.TypeCustom
		}
		tx.Date = tx.Type.BookingDate(tx.Date)
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		tx.UpdatedAt = now
		txs = append(txs, tx)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.repo.Insert(ctx, tx, &rec); err != nil {
				return err
			}
		} else if err := s.repo.UpdateProfile(ctx, tx, &rec); err != nil {
			return err
		}

		if err := s.repo.ReplaceLedger(ctx, tx, email); err != nil {
			return err
		}
		for _, e := range titles {
			if err := s.repo.UpsertTitle(ctx, tx, &memberdomain.TitleRecord{MemberEmail: email, ChangedAt: e.Date, Title: e.Value}); err != nil {
				return err
			}
		}
		for _, e := range residency {
			if err := s.repo.UpsertResidency(ctx, tx, &memberdomain.ResidencyRecord{MemberEmail: email, ChangedAt: e.Date, IsResident: e.Value}); err != nil {
				return err
			}
		}
		return s.repo.InsertTransactions(ctx, tx, txs)
	})
	if err != nil {
		return persistence(err)
	}
	return nil
}

func (s *Service) ensureExists(ctx context.Context, email string) error {
	rec, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return persistence(err)
	}
	if rec == nil {
		return memberdomain.ErrNotFound
	}
	return nil
}

func (s *Service) audit(ctx context.Context, kind auditdomain.Kind, email, value, actor string) {
	if _, err := s.auditSvc.LogAttributeChange(ctx, kind, email, value, actor); err != nil {
		s.log.Warn("member.audit.failed",
			zap.String("kind", string(kind)),
			zap.String("member_email", email),
			zap.Error(err),
		)
	}
}

func assemble(rec memberdomain.Record, titles []memberdomain.TitleRecord, residency []memberdomain.ResidencyRecord, txs []txdomain.Transaction) *memberdomain.Member {
	m := &memberdomain.Member{
		Email:        rec.Email,
		LastName:     rec.LastName,
		FirstName:    rec.FirstName,
		StartBalance: rec.StartBalance,
		CreatedAt:    rec.CreatedAt.UTC(),
		Transactions: txs,
	}
	for _, t := range titles {
		m.TitleHistory.Set(t.ChangedAt, t.Title)
	}
	for _, r := range residency {
		m.ResidencyHistory.Set(r.ChangedAt, r.IsResident)
	}
	return m
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func persistence(err error) error {
	return fmt.Errorf("%w: %w", memberdomain.ErrPersistence, err)
}

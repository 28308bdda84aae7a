package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/lock"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/internal/reimbursement/domain"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Locker       lock.Locker
	Repo         domain.Repository
	Members      memberdomain.Service
	Transactions txdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	locker       lock.Locker
	repo         domain.Repository
	members      memberdomain.Service
	transactions txdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reimbursement.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		locker:       p.Locker,
		repo:         p.Repo,
		members:      p.Members,
		transactions: p.Transactions,
	}
}

// Submit stores every complete item as pending and, when given, the bank
// details. Incomplete or unparseable rows are skipped.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error) {
	var result domain.SubmitResult

	email := memberdomain.NormalizeEmail(req.MemberEmail)
	if _, err := s.members.LoadMember(ctx, email); err != nil {
		return result, err
	}

	var details *domain.BankDetails
	if strings.TrimSpace(req.BankName) != "" || strings.TrimSpace(req.IBAN) != "" {
		d, err := s.bankDetails(email, req.BankName, req.IBAN)
		if err != nil {
			return result, err
		}
		details = d
	}

	now := s.clock.Now().UTC()
	items := make([]domain.Item, 0, len(req.Items))
	for _, in := range req.Items {
		item, ok := parseItem(in)
		if !ok {
			result.Skipped++
			continue
		}
		item.ID = s.genID.Generate()
		item.MemberEmail = email
		item.Status = domain.StatusPending
		item.CreatedAt = now
		items = append(items, item)
	}
	if len(items) == 0 && details == nil {
		return result, domain.ErrNoItems
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := s.repo.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		if details != nil {
			return s.repo.UpsertBankDetails(ctx, tx, details)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	result.Saved = items
	s.log.Info("reimbursement.submitted",
		zap.String("member_email", email),
		zap.Int("items", len(items)),
		zap.Int("skipped", result.Skipped),
		zap.Bool("bank_details", details != nil),
	)
	return result, nil
}

func (s *Service) ListByMember(ctx context.Context, email string) ([]domain.Item, error) {
	items, err := s.repo.ListItems(ctx, s.db, memberdomain.NormalizeEmail(email), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return items, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.Item, error) {
	items, err := s.repo.ListItems(ctx, s.db, "", domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return items, nil
}

func (s *Service) SaveBankDetails(ctx context.Context, email, bankName, iban string) (*domain.BankDetails, error) {
	email = memberdomain.NormalizeEmail(email)
	if _, err := s.members.LoadMember(ctx, email); err != nil {
		return nil, err
	}
	details, err := s.bankDetails(email, bankName, iban)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertBankDetails(ctx, s.db, details); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return details, nil
}

func (s *Service) GetBankDetails(ctx context.Context, email string) (*domain.BankDetails, error) {
	details, err := s.repo.FindBankDetails(ctx, s.db, memberdomain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if details == nil {
		return nil, domain.ErrNotFound
	}
	return details, nil
}

// Approve books the item as a reimbursement credit and marks it approved.
func (s *Service) Approve(ctx context.Context, id snowflake.ID, actor string) (*domain.Item, error) {
	unlock, err := s.locker.Lock(ctx, lock.MemberKey("reimbursement", id.String()))
	if err != nil {
		return nil, fmt.Errorf("reimbursement lock: %w", err)
	}
	defer unlock()

	item, err := s.repo.FindItem(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if item.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyApproved
	}

	tx, err := s.transactions.Create(ctx, txdomain.CreateRequest{
		MemberEmail: item.MemberEmail,
		Date:        calendar.Day(s.clock.Now()),
		Description: fmt.Sprintf("AaA von %s: %s", item.Date.Format(calendar.GermanDate), item.Description),
		Amount:      item.Amount.Abs(),
		Type:        txdomain.TypeReimbursement,
		Actor:       actor,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	ok, err := s.repo.MarkApproved(ctx, s.db, item.ID, tx.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if !ok {
		s.log.Error("reimbursement.approve.race", zap.String("item_id", item.ID.String()), zap.String("transaction_id", tx.ID.String()))
		return nil, domain.ErrAlreadyApproved
	}

	item.Status = domain.StatusApproved
	item.TransactionID = &tx.ID
	item.ApprovedAt = &now
	s.log.Info("reimbursement.approved",
		zap.String("item_id", item.ID.String()),
		zap.String("member_email", item.MemberEmail),
		zap.String("amount", item.Amount.String()),
	)
	return item, nil
}

func (s *Service) bankDetails(email, bankName, iban string) (*domain.BankDetails, error) {
	bankName = strings.TrimSpace(bankName)
	iban = domain.NormalizeIBAN(iban)
	if bankName == "" || iban == "" {
		return nil, domain.ErrInvalidBankDetails
	}
	if !domain.ValidIBAN(iban) {
		return nil, domain.ErrInvalidIBAN
	}
	return &domain.BankDetails{
		MemberEmail: email,
		BankName:    bankName,
		IBAN:        iban,
		UpdatedAt:   s.clock.Now().UTC(),
	}, nil
}

func parseItem(in domain.ItemInput) (domain.Item, bool) {
	description := strings.TrimSpace(in.Description)
	if description == "" || strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Amount) == "" {
		return domain.Item{}, false
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return domain.Item{}, false
	}
	amount, err := money.ParseStrict(in.Amount)
	if err != nil || !amount.IsPositive() {
		return domain.Item{}, false
	}
	return domain.Item{
		Description:     description,
		Date:            date,
		Amount:          amount,
		ReceiptFilename: strings.TrimSpace(in.ReceiptFilename),
	}, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := calendar.ParseISO(raw); err == nil {
		return t, nil
	}
	return calendar.ParseGerman(raw)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/corpsledger/internal/batch"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

// SaveMemberRequest upserts a member. Nil fields keep the stored value, or take the defaults on creation.
type SaveMemberRequest struct {
	Email        string
	LastName     string
	FirstName    *string
	StartBalance *money.Money
	CreatedAt    *time.Time
	Title        *Title
	Resident     *bool
	Actor        string
}

type Service interface {
	LoadMember(ctx context.Context, email string) (*Member, error)
	LoadAllMembers(ctx context.Context) ([]*Member, error)
	SaveMember(ctx context.Context, req SaveMemberRequest) (*Member, bool, error)
	ChangeTitle(ctx context.Context, email string, title Title, actor string) (bool, error)
	ChangeResidency(ctx context.Context, email string, resident bool, actor string) (bool, error)
	BulkChangeTitle(ctx context.Context, emails []string, title Title, actor string) batch.Result
	BalanceAsOf(ctx context.Context, email string, date time.Time) (money.Money, error)
	ImportMember(ctx context.Context, m *Member) error
}

var (
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidName  = errors.New("invalid_name")

	// Shared with the transaction package so callers can match either.
	ErrNotFound    = txdomain.ErrMemberNotFound
	ErrPersistence = txdomain.ErrPersistence
)

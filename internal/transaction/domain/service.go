package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/smallbiznis/corpsledger/pkg/db/pagination"
)

type CreateRequest struct {
	MemberEmail string
	Date        time.Time
	Description string
	Amount      money.Money
	Type        Type
	Actor       string
}

// UpdateRequest changes date, description or amount. Nil fields keep their stored value.
type UpdateRequest struct {
	ID          snowflake.ID
	MemberEmail string
	Date        *time.Time
	Description *string
	Amount      *money.Money
	Actor       string
	Note        string
}

type ListRequest struct {
	pagination.Pagination
	MemberEmail string
	Type        Type
}

type ListResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Transaction, error)
	Update(ctx context.Context, req UpdateRequest) (*Transaction, error)
	Delete(ctx context.Context, id snowflake.ID, email, actor string) (bool, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Transaction, error)
	ListByMember(ctx context.Context, email string) ([]Transaction, error)
	ListByMemberPage(ctx context.Context, req ListRequest) (ListResponse, error)
	ListByType(ctx context.Context, t Type) ([]Transaction, error)
}

var (
	ErrInvalidType         = errors.New("invalid_transaction_type")
	ErrNotFound            = errors.New("transaction_not_found")
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrPersistence         = errors.New("persistence_error")
	ErrDuplicateMonthlyFee = errors.New("duplicate_monthly_fee")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)

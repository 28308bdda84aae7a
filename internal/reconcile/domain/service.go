package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/corpsledger/internal/batch"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

// Summary reports what one member reconciliation wrote.
type Summary struct {
	MemberEmail string                 `json:"email"`
	Created     []txdomain.Transaction `json:"created"`
	Conflicted  int                    `json:"conflicted"`
}

// PaymentRow is one previewed fee confirmed by an admin, as submitted.
type PaymentRow struct {
	Email  string `json:"email"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type SaveResult struct {
	Saved   int             `json:"saved"`
	Skipped int             `json:"skipped"`
	Failed  []batch.Failure `json:"failed"`
}

type Service interface {
	Preview(ctx context.Context, email string, asOf time.Time) ([]Candidate, error)
	PreviewAll(ctx context.Context, asOf time.Time) ([]Candidate, error)
	ReconcileMember(ctx context.Context, email string, asOf time.Time, actor string) (Summary, error)
	ReconcileAll(ctx context.Context, asOf time.Time, actor string) batch.Result
	SaveMissingPayments(ctx context.Context, rows []PaymentRow, actor string) SaveResult
}

var ErrInvalidRange = errors.New("invalid_range")

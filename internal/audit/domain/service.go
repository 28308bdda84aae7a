package domain

import (
	"context"
	"errors"
	"time"
)

// DedupWindow is how long a differing attribute entry may still be replaced instead of appended to.
const DedupWindow = 72 * time.Hour

type Service interface {
	LogAttributeChange(ctx context.Context, kind Kind, email, newValue, actor string) (Outcome, error)
	LogTransactionChange(ctx context.Context, in TransactionChangeInput) error
	ListAttributeChanges(ctx context.Context, email string, kind Kind) ([]AttributeChange, error)
	ListTransactionChanges(ctx context.Context, email string) ([]TransactionChange, error)
}

var (
	ErrInvalidKind   = errors.New("invalid_audit_kind")
	ErrInvalidAction = errors.New("invalid_audit_action")
	ErrInvalidEmail  = errors.New("invalid_email")
)

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
)

// ItemInput is one submitted form row, unparsed.
type ItemInput struct {
	Description     string `json:"description"`
	Date            string `json:"date"`
	Amount          string `json:"amount"`
	ReceiptFilename string `json:"receipt_filename"`
}

type SubmitRequest struct {
	MemberEmail string
	Items       []ItemInput
	BankName    string
	IBAN        string
}

type SubmitResult struct {
	Saved   []Item `json:"saved"`
	Skipped int    `json:"skipped"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	ListByMember(ctx context.Context, email string) ([]Item, error)
	ListPending(ctx context.Context) ([]Item, error)
	SaveBankDetails(ctx context.Context, email, bankName, iban string) (*BankDetails, error)
	GetBankDetails(ctx context.Context, email string) (*BankDetails, error)
	Approve(ctx context.Context, id snowflake.ID, actor string) (*Item, error)
}

var (
	ErrNotFound           = errors.New("reimbursement_not_found")
	ErrAlreadyApproved    = errors.New("reimbursement_already_approved")
	ErrInvalidIBAN        = errors.New("invalid_iban")
	ErrInvalidBankDetails = errors.New("invalid_bank_details")
	ErrNoItems            = errors.New("no_valid_items")
	ErrPersistence        = txdomain.ErrPersistence
)

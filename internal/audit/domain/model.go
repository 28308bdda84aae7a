package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Kind string

const (
	KindTitle     Kind = "title"
	KindResidency Kind = "residency"
)

func (k Kind) Valid() bool {
	return k == KindTitle || k == KindResidency
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Outcome reports what LogAttributeChange did with a change.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCollapsed Outcome = "collapsed"
)

// AttributeChange records a title or residency change of a member.
type AttributeChange struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Kind        Kind         `json:"kind"`
	MemberEmail string       `json:"member_email"`
	NewValue    string       `json:"new_value"`
	ChangedBy   string       `json:"changed_by"`
	ChangedAt   time.Time    `json:"changed_at"`
}

func (AttributeChange) TableName() string { return "attribute_changes" }

// TransactionChange records a create, update or delete of a ledger transaction.
type TransactionChange struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	TransactionID snowflake.ID      `json:"transaction_id"`
	MemberEmail   string            `json:"member_email"`
	Action        Action            `json:"action"`
	ChangedBy     string            `json:"changed_by"`
	Description   string            `json:"description"`
	Snapshot      datatypes.JSONMap `json:"snapshot,omitempty"`
	ChangedAt     time.Time         `json:"changed_at"`
}

func (TransactionChange) TableName() string { return "transaction_change_log" }

// TransactionChangeInput is what callers hand to LogTransactionChange.
type TransactionChangeInput struct {
	TransactionID snowflake.ID
	MemberEmail   string
	Action        Action
	Actor         string
	Note          string
	Snapshot      map[string]any
}

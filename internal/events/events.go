package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	KindTransactionCreated Kind = "transaction.created"
	KindTransactionUpdated Kind = "transaction.updated"
	KindTransactionDeleted Kind = "transaction.deleted"
)

// Event is the JSON envelope published for every ledger write.
type Event struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	MemberEmail string         `json:"member_email"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

func New(kind Kind, email string, at time.Time, data map[string]any) Event {
	return Event{
		ID:          ulid.Make().String(),
		Kind:        kind,
		MemberEmail: email,
		OccurredAt:  at.UTC(),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
	"github.com/smallbiznis/corpsledger/internal/audit/repository"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T, name string) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 5, 7, 10, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Locker: lock.NewKeyedMutex(),
		Repo:   repository.Provide(),
	})
	return svc, fake
}

func TestLogAttributeChangeSkipsIdenticalValue(t *testing.T) {
	svc, _ := setupService(t, "audit_skip")
	ctx := context.Background()

	outcome, err := svc.LogAttributeChange(ctx, auditdomain.KindTitle, "A@Corps.de", "CB", "admin@corps.de")
	require.NoError(t, err)
	assert.Equal(t, auditdomain.OutcomeInserted, outcome)

	outcome, err = svc.LogAttributeChange(ctx, auditdomain.KindTitle, "a@corps.de", "CB", "admin@corps.de")
	require.NoError(t, err)
	assert.Equal(t, auditdomain.OutcomeSkipped, outcome)

	rows, err := svc.ListAttributeChanges(ctx, "a@corps.de", auditdomain.KindTitle)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLogAttributeChangeCollapsesWithinWindow(t *testing.T) {
	svc, fake := setupService(t, "audit_collapse")
	ctx := context.Background()

	_, err := svc.LogAttributeChange(ctx, auditdomain.KindTitle, "b@corps.de", "F", "admin")
	require.NoError(t, err)

	fake.Advance(24 * time.Hour)
	outcome, err := svc.LogAttributeChange(ctx, auditdomain.KindTitle, "b@corps.de", "CB", "admin")
	require.NoError(t, err)
	assert.Equal(t, auditdomain.OutcomeCollapsed, outcome)

	rows, err := svc.ListAttributeChanges(ctx, "b@corps.de", auditdomain.KindTitle)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CB", rows[0].NewValue)
}

func TestLogAttributeChangeAppendsAfterWindow(t *testing.T) {
	svc, fake := setupService(t, "audit_append")
	ctx := context.Background()

	_, err := svc.LogAttributeChange(ctx, auditdomain.KindResidency, "c@corps.de", "true", "admin")
	require.NoError(t, err)

	fake.Advance(auditdomain.DedupWindow)
	outcome, err := svc.LogAttributeChange(ctx, auditdomain.KindResidency, "c@corps.de", "false", "admin")
	require.NoError(t, err)
	assert.Equal(t, auditdomain.OutcomeInserted, outcome)

	rows, err := svc.ListAttributeChanges(ctx, "c@corps.de", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "false", rows[0].NewValue)
	assert.Equal(t, "true", rows[1].NewValue)
}

func TestLogAttributeChangeKindsAreIndependent(t *testing.T) {
	svc, _ := setupService(t, "audit_kinds")
	ctx := context.Background()

	_, err := svc.LogAttributeChange(ctx, auditdomain.KindTitle, "d@corps.de", "F", "")
	require.NoError(t, err)
	outcome, err := svc.LogAttributeChange(ctx, auditdomain.KindResidency, "d@corps.de", "true", "")
	require.NoError(t, err)
	assert.Equal(t, auditdomain.OutcomeInserted, outcome)

	rows, err := svc.ListAttributeChanges(ctx, "d@corps.de", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "system", rows[0].ChangedBy)
}

func TestLogAttributeChangeRejectsUnknownKind(t *testing.T) {
	svc, _ := setupService(t, "audit_bad_kind")
	_, err := svc.LogAttributeChange(context.Background(), "color", "e@corps.de", "red", "")
	assert.ErrorIs(t, err, auditdomain.ErrInvalidKind)
}

func TestLogTransactionChangeAlwaysInserts(t *testing.T) {
	svc, _ := setupService(t, "audit_tx")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := svc.LogTransactionChange(ctx, auditdomain.TransactionChangeInput{
			TransactionID: 42,
			MemberEmail:   "f@corps.de",
			Action:        auditdomain.ActionUpdate,
			Actor:         "admin@corps.de",
			Note:          "typo",
			Snapshot:      map[string]any{"amount": "-15.00"},
		})
		require.NoError(t, err)
	}

	rows, err := svc.ListTransactionChanges(ctx, "F@corps.de")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "typo", rows[0].Description)
	assert.Equal(t, "-15.00", rows[0].Snapshot["amount"])

	err = svc.LogTransactionChange(ctx, auditdomain.TransactionChangeInput{Action: "archive"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

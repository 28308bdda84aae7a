package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepo "github.com/smallbiznis/corpsledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/corpsledger/internal/audit/service"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	"github.com/smallbiznis/corpsledger/internal/clock"
	"github.com/smallbiznis/corpsledger/internal/events"
	"github.com/smallbiznis/corpsledger/internal/lock"
	"github.com/smallbiznis/corpsledger/internal/migration"
	"github.com/smallbiznis/corpsledger/internal/money"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/smallbiznis/corpsledger/internal/transaction/repository"
	"github.com/smallbiznis/corpsledger/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type fixture struct {
	db        *gorm.DB
	svc       txdomain.Service
	publisher *mockPublisher
}

func setup(t *testing.T, name string) fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	require.NoError(t, conn.Exec(`INSERT INTO members (email, last_name, first_name, start_balance, created_at, updated_at)
		VALUES ('a@corps.de', 'Muster', 'Max', '0.00', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 7, 9, 0, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Locker: lock.NewKeyedMutex(),
		Repo:   auditrepo.Provide(),
	})

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		AuditSvc:  audit,
		Publisher: publisher,
	})
	return fixture{db: conn, svc: svc, publisher: publisher}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestCreatePersistsAndAudits(t *testing.T) {
	f := setup(t, "tx_create")
	ctx := context.Background()

	tx, err := f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "A@corps.de",
		Date:        time.Date(2025, 5, 3, 18, 30, 0, 0, time.UTC),
		Description: " Strafe Kneipe ",
		Amount:      money.MustParse("-5.00"),
		Type:        txdomain.TypeFine,
		Actor:       "admin@corps.de",
	})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, "a@corps.de", tx.MemberEmail)
	assert.Equal(t, day(2025, 5, 3), tx.Date)
	assert.Equal(t, "Strafe Kneipe", tx.Description)

	stored, err := f.svc.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "-5.00", stored.Amount.String())
	assert.Equal(t, day(2025, 5, 3), stored.Date)

	assert.Equal(t, int64(1), countRows(t, f.db, "transaction_change_log"))
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Kind == events.KindTransactionCreated && e.MemberEmail == "a@corps.de"
	}))
}

func TestCreateRejectsUnknownMemberAndType(t *testing.T) {
	f := setup(t, "tx_create_invalid")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "ghost@corps.de",
		Date:        day(2025, 5, 1),
		Amount:      money.MustParse("1.00"),
		Type:        txdomain.TypeCredit,
	})
	assert.ErrorIs(t, err, txdomain.ErrMemberNotFound)

	_, err = f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 5, 1),
		Type:        "bribe",
	})
	assert.ErrorIs(t, err, txdomain.ErrInvalidType)

	_, err = f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Type:        txdomain.TypeCredit,
	})
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestCreateDuplicateMonthlyFee(t *testing.T) {
	f := setup(t, "tx_dup_fee")
	ctx := context.Background()

	req := txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 4, 1),
		Description: "Monatsbeitrag (April 2025)",
		Amount:      money.MustParse("-15.00"),
		Type:        txdomain.TypeMonthlyFee,
	}
	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, txdomain.ErrDuplicateMonthlyFee)
	assert.ErrorIs(t, err, txdomain.ErrPersistence)
}

func TestMonthlyFeeBookedOnFirstOfMonth(t *testing.T) {
	f := setup(t, "tx_fee_first")
	ctx := context.Background()

	fee := func(date time.Time) txdomain.CreateRequest {
		return txdomain.CreateRequest{
			MemberEmail: "a@corps.de",
			Date:        date,
			Description: "Monatsbeitrag",
			Amount:      money.MustParse("-15.00"),
			Type:        txdomain.TypeMonthlyFee,
		}
	}

	_, err := f.svc.Create(ctx, fee(day(2025, 3, 1)))
	require.NoError(t, err)

	// same month, different day
	_, err = f.svc.Create(ctx, fee(day(2025, 3, 15)))
	assert.ErrorIs(t, err, txdomain.ErrDuplicateMonthlyFee)

	feb, err := f.svc.Create(ctx, fee(day(2025, 2, 20)))
	require.NoError(t, err)
	assert.Equal(t, day(2025, 2, 1), feb.Date)

	march := day(2025, 3, 28)
	_, err = f.svc.Update(ctx, txdomain.UpdateRequest{ID: feb.ID, MemberEmail: "a@corps.de", Date: &march})
	assert.ErrorIs(t, err, txdomain.ErrDuplicateMonthlyFee)

	jan := day(2025, 1, 9)
	moved, err := f.svc.Update(ctx, txdomain.UpdateRequest{ID: feb.ID, MemberEmail: "a@corps.de", Date: &jan})
	require.NoError(t, err)
	assert.Equal(t, day(2025, 1, 1), moved.Date)

	var fees int64
	require.NoError(t, f.db.Table("transactions").Where("type = ?", txdomain.TypeMonthlyFee).Count(&fees).Error)
	assert.Equal(t, int64(2), fees)
}

func TestCreateStoresCanonicalType(t *testing.T) {
	f := setup(t, "tx_legacy_type")

	tx, err := f.svc.Create(context.Background(), txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 5, 2),
		Amount:      money.MustParse("10.00"),
		Type:        "3",
	})
	require.NoError(t, err)
	assert.Equal(t, txdomain.TypeCredit, tx.Type)
}

func TestUpdateFillsInBlanks(t *testing.T) {
	f := setup(t, "tx_update")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 5, 1),
		Description: "Bier",
		Amount:      money.MustParse("-3.60"),
		Type:        txdomain.TypeDrinks,
	})
	require.NoError(t, err)

	amount := money.MustParse("-4.80")
	updated, err := f.svc.Update(ctx, txdomain.UpdateRequest{
		ID:          created.ID,
		MemberEmail: "a@corps.de",
		Amount:      &amount,
		Actor:       "admin@corps.de",
		Note:        "counted again",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bier", updated.Description)
	assert.Equal(t, day(2025, 5, 1), updated.Date)
	assert.Equal(t, "-4.80", updated.Amount.String())
	assert.Equal(t, txdomain.TypeDrinks, updated.Type)

	_, err = f.svc.Update(ctx, txdomain.UpdateRequest{ID: created.ID, MemberEmail: "other@corps.de"})
	assert.ErrorIs(t, err, txdomain.ErrNotFound)
}

func TestDeleteRequiresOwner(t *testing.T) {
	f := setup(t, "tx_delete")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 5, 1),
		Amount:      money.MustParse("20.00"),
		Type:        txdomain.TypeCredit,
	})
	require.NoError(t, err)

	ok, err := f.svc.Delete(ctx, created.ID, "intruder@corps.de", "admin")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), countRows(t, f.db, "transaction_change_log"))

	ok, err = f.svc.Delete(ctx, created.ID, "a@corps.de", "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), countRows(t, f.db, "transaction_change_log"))

	ok, err = f.svc.Delete(ctx, created.ID, "a@corps.de", "admin")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, txdomain.ErrNotFound)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := setup(t, "tx_publish_fail")
	f.publisher.ExpectedCalls = nil
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := f.svc.Create(context.Background(), txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 5, 1),
		Amount:      money.MustParse("1.00"),
		Type:        txdomain.TypeCustom,
	})
	assert.NoError(t, err)
}

func TestListByMemberPageAndType(t *testing.T) {
	f := setup(t, "tx_list")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := f.svc.Create(ctx, txdomain.CreateRequest{
			MemberEmail: "a@corps.de",
			Date:        day(2025, time.Month(i), 1),
			Amount:      money.MustParse("-15.00"),
			Type:        txdomain.TypeMonthlyFee,
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, txdomain.CreateRequest{
		MemberEmail: "a@corps.de",
		Date:        day(2025, 2, 10),
		Amount:      money.MustParse("50.00"),
		Type:        txdomain.TypeCredit,
	})
	require.NoError(t, err)

	all, err := f.svc.ListByMember(ctx, "A@CORPS.DE")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	first, err := f.svc.ListByMemberPage(ctx, txdomain.ListRequest{
		Pagination:  pagination.Pagination{PageSize: 4},
		MemberEmail: "a@corps.de",
	})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 4)
	assert.True(t, first.HasMore)
	assert.Equal(t, day(2025, 5, 1), first.Transactions[0].Date)

	second, err := f.svc.ListByMemberPage(ctx, txdomain.ListRequest{
		Pagination:  pagination.Pagination{PageSize: 4, PageToken: first.NextPageToken},
		MemberEmail: "a@corps.de",
	})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, day(2025, 1, 1), second.Transactions[1].Date)

	_, err = f.svc.ListByMemberPage(ctx, txdomain.ListRequest{
		Pagination:  pagination.Pagination{PageToken: "garbage"},
		MemberEmail: "a@corps.de",
	})
	assert.ErrorIs(t, err, txdomain.ErrInvalidPageToken)

	credits, err := f.svc.ListByType(ctx, txdomain.TypeCredit)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, "50.00", credits[0].Amount.String())
}

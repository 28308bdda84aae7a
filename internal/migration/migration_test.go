package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrateEnforcesOneFeePerMonth(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migration_fee?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	// idempotent
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Exec(`INSERT INTO members (email, last_name, first_name, start_balance, created_at, updated_at)
		VALUES ('a@corps.de', 'Muster', '', '0.00', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)

	insert := `INSERT INTO transactions (id, member_email, date, description, amount, type, created_at, updated_at)
		VALUES (?, 'a@corps.de', '2025-03-01', 'x', '-15.00', ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	require.NoError(t, db.Exec(insert, 1, "monthly-fee").Error)
	assert.Error(t, db.Exec(insert, 2, "monthly-fee").Error)

	// other types may share the day
	require.NoError(t, db.Exec(insert, 3, "fine").Error)
	require.NoError(t, db.Exec(insert, 4, "fine").Error)
}

func TestMonthlyFeeIndexRejectsUnknownDialect(t *testing.T) {
	_, err := monthlyFeeIndex("oracle")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

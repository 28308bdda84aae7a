package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Apply brings the schema up to date for the connection's dialect.
func Apply(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema on sqlite and mysql from the table models.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(tables()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	stmt, err := monthlyFeeIndex(conn.Dialector.Name())
	if err != nil {
		return err
	}
	if conn.Dialector.Name() == "mysql" && conn.Migrator().HasIndex(&transactionRow{}, monthlyFeeIndexName) {
		return nil
	}
	if err := conn.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create monthly fee index: %w", err)
	}
	return nil
}

const monthlyFeeIndexName = "ux_transactions_monthly_fee"

// monthlyFeeIndex restricts uniqueness of (member_email, date) to monthly-fee rows.
// MySQL has no partial indexes; NULL functional key parts are never equal, which gives the same effect.
func monthlyFeeIndex(dialect string) (string, error) {
	switch dialect {
	case "sqlite", "postgres":
		return "CREATE UNIQUE INDEX IF NOT EXISTS " + monthlyFeeIndexName +
			" ON transactions (member_email, date, type) WHERE type = 'monthly-fee'", nil
	case "mysql":
		return "CREATE UNIQUE INDEX " + monthlyFeeIndexName + " ON transactions (" +
			"(CASE WHEN type = 'monthly-fee' THEN member_email END), " +
			"(CASE WHEN type = 'monthly-fee' THEN date END))", nil
	default:
		return "", fmt.Errorf("unsupported dialect %s", dialect)
	}
}

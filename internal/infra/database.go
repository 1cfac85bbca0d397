package infra

import (
	"fmt"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema. Also used by integration tests against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() column defaults need pgcrypto on PostgreSQL < 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Store{},
		&model.Warehouse{},
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.StockLevel{},
		&model.StockMovement{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.CashWithdrawal{},
		&model.TicketCounter{},
		&model.Sale{},
		&model.SaleLine{},
		&model.Payment{},
		&model.ReturnRecord{},
		&model.Voucher{},
		&model.LedgerOutbox{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open session per store, enforced by the database even
		// under concurrent opens.
		{"partial unique index on open sessions", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_sessions_store_open') THEN
    CREATE UNIQUE INDEX idx_cash_sessions_store_open
        ON cash_sessions (store_id)
        WHERE status = 'open';
  END IF;
END $$`},
		// Retry cron scans only deliverable outbox rows.
		{"partial index for pending outbox rows", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_ledger_outbox_pending') THEN
    CREATE INDEX idx_ledger_outbox_pending
        ON ledger_outbox (next_retry_at)
        WHERE status = 'pending';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}

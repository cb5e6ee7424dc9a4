package infra

import (
	"fmt"

	"stocktake/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies idempotent SQL patches that GORM cannot express (partial
// indexes). TranslateError is enabled so unique-constraint violations surface
// as gorm.ErrDuplicatedKey — the zone-completion engine relies on that to
// collapse racing milestone inserts into a no-op.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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

// RunMigrations creates/updates all tables and applies schema patches. Also
// called by the integration test harness against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.CountSession{},
		&model.Item{},
		&model.ActivityEvent{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// The partial unique index is the hard guarantee behind "at most one
// zone_complete event per (session, zone)": the existence pre-check alone
// admits a narrow race between concurrent submissions.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_activity_zone_complete
		     ON activity_events (session_id, zone)
		     WHERE type = 'zone_complete'`,
		// The activity feed always filters by session and sorts by creation order.
		`CREATE INDEX IF NOT EXISTS idx_activity_session_created
		     ON activity_events (session_id, created_at, seq)`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}

package repository

import (
	"fmt"

	"utility-works/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres through gorm
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the entry table and both aggregate tables.
// Each aggregate table gets a unique (completed_works, year) index so that
// concurrent writers cannot create duplicate rows for one bucket.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.WorkEntry{}); err != nil {
		return fmt.Errorf("migrate work_entries: %w", err)
	}

	for _, category := range model.Categories {
		table := category.AggregateTable()
		if err := db.Table(table).AutoMigrate(&model.AnnualAggregate{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_bucket ON %s (completed_works, year)", table, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index %s: %w", table, err)
		}
	}
	return nil
}

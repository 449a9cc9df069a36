package repository

import (
	"context"
	"fmt"

	"utility-works/internal/model"

	"gorm.io/gorm"
)

// ClearLedger removes every work entry and every aggregate row in one transaction
func ClearLedger(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, category := range model.Categories {
			table := category.AggregateTable()
			if err := all.Table(table).Delete(&model.AnnualAggregate{}).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := all.Delete(&model.WorkEntry{}).Error; err != nil {
			return fmt.Errorf("clear work_entries: %w", err)
		}
		return nil
	})
}

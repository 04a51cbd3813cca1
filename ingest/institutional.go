package ingest

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
)

// UpsertInstitutionalFutures replaces a date's futures rows. The scraper
// collaborator hands in already-normalized rows; here they only get the
// delete-then-insert treatment so reruns stay idempotent.
func UpsertInstitutionalFutures(ctx context.Context, db *gorm.DB, date string, rows []models.InstitutionalFutures) error {
	if len(rows) == 0 {
		return fmt.Errorf("no futures rows for %s", date)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(`"Date" = ?`, date).Delete(&models.InstitutionalFutures{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, len(rows)).Error
	})
}

// UpsertInstitutionalOptions replaces a date's options rows.
func UpsertInstitutionalOptions(ctx context.Context, db *gorm.DB, date string, rows []models.InstitutionalOptions) error {
	if len(rows) == 0 {
		return fmt.Errorf("no options rows for %s", date)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(`"Date" = ?`, date).Delete(&models.InstitutionalOptions{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, len(rows)).Error
	})
}

// UpsertInstitutionalSpot replaces a date's spot rows.
func UpsertInstitutionalSpot(ctx context.Context, db *gorm.DB, date string, rows []models.InstitutionalSpot) error {
	if len(rows) == 0 {
		return fmt.Errorf("no spot rows for %s", date)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(`"Date" = ?`, date).Delete(&models.InstitutionalSpot{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(rows, len(rows)).Error
	})
}

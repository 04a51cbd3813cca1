package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
)

// EnsureCandleTable creates the one-minute candle table for a symbol if it
// does not exist yet. (Date, Time) is the row identity; the upsert layer's
// delete-then-insert keeps it unique.
func EnsureCandleTable(db *gorm.DB, symbol string) error {
	table, err := models.CandleTable(symbol)
	if err != nil {
		return err
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"Date"   varchar(10) NOT NULL,
			"Time"   varchar(8)  NOT NULL,
			"Open"   bigint      NOT NULL,
			"High"   bigint      NOT NULL,
			"Low"    bigint      NOT NULL,
			"Close"  bigint      NOT NULL,
			"Volume" bigint      NOT NULL,
			PRIMARY KEY ("Date", "Time")
		)
	`, table)
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("failed to create candle table %s: %w", table, err)
	}

	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s ("Date")`,
		table, table,
	)
	if err := db.Exec(idx).Error; err != nil {
		return fmt.Errorf("failed to create candle date index on %s: %w", table, err)
	}
	return nil
}

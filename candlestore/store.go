package candlestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
	"github.com/fexlab/fexmine/resample"
)

// Store writes resampled candles into the per-symbol tables. All mutation is
// delete-then-reinsert inside one transaction; there is no partial update.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

const insertBatchSize = 500

// Upsert replaces the stored rows covered by the candle batch and inserts the
// batch. Re-running with the same candles leaves the table unchanged.
//
// The covered range is Date = last.Date AND Time <= last.Time, superseding a
// re-run of the same day. A batch opening at 15:01:00 is a fresh overnight
// run: the stale tail of a previous partial overnight run (same date, later
// times) is cleared too, as is the full prior overnight window located one
// session length into the batch.
func (s *Store) Upsert(ctx context.Context, symbol string, candles []models.Candle) (int64, error) {
	if len(candles) == 0 {
		return 0, fmt.Errorf("empty candle batch for %s", symbol)
	}
	for i := range candles {
		if err := candles[i].Validate(); err != nil {
			return 0, fmt.Errorf("candle %d: %w", i, err)
		}
	}
	table, err := models.CandleTable(symbol)
	if err != nil {
		return 0, err
	}

	var inserted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first := candles[0]
		last := candles[len(candles)-1]

		if err := tx.Exec(
			fmt.Sprintf(`DELETE FROM %s WHERE "Date" = ? AND "Time" <= ?`, table),
			last.Date, last.Time,
		).Error; err != nil {
			return fmt.Errorf("failed to clear superseded rows: %w", err)
		}

		if first.Time == resample.NightFirstCandleTime {
			if err := tx.Exec(
				fmt.Sprintf(`DELETE FROM %s WHERE "Date" = ? AND "Time" >= ?`, table),
				first.Date, first.Time,
			).Error; err != nil {
				return fmt.Errorf("failed to clear stale overnight tail: %w", err)
			}
			if idx := resample.OvernightSessionMinutes - 1; len(candles) > idx {
				ref := candles[idx]
				if err := tx.Exec(
					fmt.Sprintf(`DELETE FROM %s WHERE "Date" = ? AND "Time" <= ?`, table),
					ref.Date, ref.Time,
				).Error; err != nil {
					return fmt.Errorf("failed to clear prior overnight window: %w", err)
				}
			}
		}

		res := tx.Table(table).CreateInBatches(candles, insertBatchSize)
		if res.Error != nil {
			return fmt.Errorf("failed to insert candles: %w", res.Error)
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("candles upserted",
		zap.String("symbol", symbol),
		zap.String("date", candles[len(candles)-1].Date),
		zap.Int64("rows", inserted))
	return inserted, nil
}

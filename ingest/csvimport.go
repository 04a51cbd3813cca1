package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
	"github.com/fexlab/fexmine/symbols"
)

// CSVItem selects which legacy institutional dump is being imported.
type CSVItem string

const (
	CSVFutures CSVItem = "Fut"
	CSVOptions CSVItem = "OP"
)

const institutionalValueCols = 12

// ImportInstitutionalCSV loads a legacy Big5-encoded institutional dump into
// the matching table. The dump carries localized product/participant names;
// they are rewritten to canonical codes before parsing. Returns the number of
// imported rows.
func ImportInstitutionalCSV(ctx context.Context, db *gorm.DB, path string, item CSVItem, log *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(transform.NewReader(f, traditionalchinese.Big5.NewDecoder()))
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s as Big5: %w", path, err)
	}
	text := symbols.ReplaceAll(string(raw))

	switch item {
	case CSVFutures:
		rows, err := parseFuturesCSV(text)
		if err != nil {
			return 0, err
		}
		if err := insertCSVRows(ctx, db, rows); err != nil {
			return 0, err
		}
		log.Info("legacy futures dump imported", zap.String("path", path), zap.Int("rows", len(rows)))
		return len(rows), nil
	case CSVOptions:
		rows, err := parseOptionsCSV(text)
		if err != nil {
			return 0, err
		}
		if err := insertCSVRows(ctx, db, rows); err != nil {
			return 0, err
		}
		log.Info("legacy options dump imported", zap.String("path", path), zap.Int("rows", len(rows)))
		return len(rows), nil
	default:
		return 0, fmt.Errorf("unknown csv item %q", item)
	}
}

func parseFuturesCSV(text string) ([]models.InstitutionalFutures, error) {
	var rows []models.InstitutionalFutures
	for _, record := range strings.Fields(text) {
		fields := strings.Split(record, ",")
		if len(fields) < 3+institutionalValueCols || !symbols.IsCode(fields[1]) {
			continue
		}
		values, err := parseValueCols(fields[len(fields)-institutionalValueCols:])
		if err != nil {
			continue
		}
		rows = append(rows, models.InstitutionalFutures{
			Date:          fields[0],
			Product:       fields[1],
			Institutional: fields[2],
			TRBContract:   values[0],
			TRBAmount:     values[1],
			TRSContract:   values[2],
			TRSAmount:     values[3],
			TRNetContract: values[4],
			TRNetAmount:   values[5],
			OIBContract:   values[6],
			OIBAmount:     values[7],
			OISContract:   values[8],
			OISAmount:     values[9],
			OINetContract: values[10],
			OINetAmount:   values[11],
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no importable futures rows found")
	}
	return rows, nil
}

func parseOptionsCSV(text string) ([]models.InstitutionalOptions, error) {
	var rows []models.InstitutionalOptions
	for _, record := range strings.Fields(text) {
		fields := strings.Split(record, ",")
		if len(fields) < 4+institutionalValueCols || !symbols.IsCode(fields[1]) {
			continue
		}
		values, err := parseValueCols(fields[len(fields)-institutionalValueCols:])
		if err != nil {
			continue
		}
		rows = append(rows, models.InstitutionalOptions{
			Date:          fields[0],
			Product:       fields[1],
			Side:          fields[2],
			Institutional: fields[3],
			TRBContract:   values[0],
			TRBAmount:     values[1],
			TRSContract:   values[2],
			TRSAmount:     values[3],
			TRNetContract: values[4],
			TRNetAmount:   values[5],
			OIBContract:   values[6],
			OIBAmount:     values[7],
			OISContract:   values[8],
			OISAmount:     values[9],
			OINetContract: values[10],
			OINetAmount:   values[11],
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no importable options rows found")
	}
	return rows, nil
}

func parseValueCols(fields []string) ([institutionalValueCols]int64, error) {
	var out [institutionalValueCols]int64
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func insertCSVRows[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 2000).Error
	})
}

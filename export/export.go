package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
)

// Day-session read window for exports. The stored night-session rows are
// deliberately excluded, matching the charting consumers.
const (
	dayWindowStart = "08:45:00"
	dayWindowEnd   = "13:45:00"
)

// Exporter re-aggregates stored one-minute candles into larger intervals and
// writes the flat-file and chart artifacts.
type Exporter struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Exporter {
	return &Exporter{db: db, log: log}
}

// DayCandles loads the day-session one-minute rows for a date, time-ordered.
func (e *Exporter) DayCandles(symbol, date string) ([]models.Candle, error) {
	table, err := models.CandleTable(symbol)
	if err != nil {
		return nil, err
	}
	var rows []models.Candle
	err = e.db.Table(table).
		Where(`"Date" = ? AND "Time" > ? AND "Time" <= ?`, date, dayWindowStart, dayWindowEnd).
		Order(`"Date", "Time"`).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read candles for %s %s: %w", symbol, date, err)
	}
	return rows, nil
}

// Resample reads a date's day-session rows and groups them per interval.
func (e *Exporter) Resample(symbol, date string, interval int) ([]models.Candle, error) {
	rows, err := e.DayCandles(symbol, date)
	if err != nil {
		return nil, err
	}
	return GroupCandles(rows, interval), nil
}

// GroupCandles merges consecutive runs of interval stored rows into one
// candle each. Batches are row-count based, not wall-clock aligned; a short
// final batch is still emitted. Each output carries the last row's
// Date/Time, with the exchange's truncated 13:30:00 close relabeled to the
// session end.
func GroupCandles(rows []models.Candle, interval int) []models.Candle {
	if interval <= 1 {
		out := make([]models.Candle, len(rows))
		copy(out, rows)
		return out
	}

	var out []models.Candle
	for start := 0; start < len(rows); start += interval {
		end := start + interval
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		c := models.Candle{
			Date:  batch[len(batch)-1].Date,
			Time:  batch[len(batch)-1].Time,
			Open:  batch[0].Open,
			High:  batch[0].High,
			Low:   batch[0].Low,
			Close: batch[len(batch)-1].Close,
		}
		for _, row := range batch {
			if row.High > c.High {
				c.High = row.High
			}
			if row.Low < c.Low {
				c.Low = row.Low
			}
			c.Volume += row.Volume
		}
		if c.Time == "13:30:00" {
			c.Time = dayWindowEnd
		}
		out = append(out, c)
	}
	return out
}

// FileName builds the flat-file name for an export run.
func FileName(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s-%s", symbol, start.Format("20060102"), end.Format("20060102"))
}

// ResampleRange resamples every date in [start, end]. Dates with no stored
// rows contribute nothing.
func (e *Exporter) ResampleRange(symbol string, start, end time.Time, interval int) ([]models.Candle, error) {
	var out []models.Candle
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rows, err := e.Resample(symbol, d.Format(models.DateLayout), interval)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// WriteRange writes the delimited rows for a date range to w.
func (e *Exporter) WriteRange(w io.Writer, symbol string, start, end time.Time, interval int) error {
	rows, err := e.ResampleRange(symbol, start, end, interval)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Date,Time,Open,High,Low,Close,Volume"); err != nil {
		return err
	}
	for _, c := range rows {
		if _, err := fmt.Fprintf(w, "%s,%s,%d,%d,%d,%d,%d\n",
			c.Date, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return err
		}
	}
	return nil
}

// ExportRange writes the flat file for a date range into dir and returns its
// path.
func (e *Exporter) ExportRange(dir, symbol string, start, end time.Time, interval int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(symbol, start, end))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := e.WriteRange(f, symbol, start, end, interval); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", path, err)
	}
	e.log.Info("range exported", zap.String("path", path), zap.String("symbol", symbol))
	return path, nil
}

// ChartPoint is one row of the cumulative charting JSON:
// [unix_ms, open, high, low, close, volume].
type ChartPoint [6]int64

// MergeChartPoints appends fresh points onto existing ones, deduplicating by
// timestamp (fresh wins) and keeping chronological order.
func MergeChartPoints(existing, fresh []ChartPoint) []ChartPoint {
	byTS := make(map[int64]ChartPoint, len(existing)+len(fresh))
	for _, p := range existing {
		byTS[p[0]] = p
	}
	for _, p := range fresh {
		byTS[p[0]] = p
	}
	out := make([]ChartPoint, 0, len(byTS))
	for _, p := range byTS {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// AppendChartJSON merges candles into the cumulative per-symbol chart file.
func (e *Exporter) AppendChartJSON(path string, candles []models.Candle) error {
	fresh := make([]ChartPoint, 0, len(candles))
	for _, c := range candles {
		ts, err := c.Timestamp(time.Local)
		if err != nil {
			return err
		}
		fresh = append(fresh, ChartPoint{ts.UnixMilli(), c.Open, c.High, c.Low, c.Close, c.Volume})
	}

	var existing []ChartPoint
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("corrupt chart file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	merged := MergeChartPoints(existing, fresh)
	raw, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write chart file %s: %w", path, err)
	}
	return nil
}

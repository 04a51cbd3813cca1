// Package signals derives the charting aggregates from the institutional
// daily tables and the stored TX closes: foreign-investor open-interest
// deltas valued in index points, spot net flows and the options
// open-interest skew, plus the MTX rolling-average signal.
package signals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/models"
)

const (
	// txMultiplier is the TX contract value per index point, in TWD.
	txMultiplier = 200
	// hundredMillion scales TWD amounts to the charting unit.
	hundredMillion = 100_000_000
	// optSkewUnit scales the options open-interest amounts (reported in
	// thousands) to the charting unit.
	optSkewUnit = 100_000
)

// DailyBasis is one date of the foreign-investor flow signal.
type DailyBasis struct {
	Date string `json:"date"`
	// Close is the TX day-session settlement-window close.
	Close int64 `json:"close"`
	// OINet is the foreign-investor net open interest, in contracts.
	OINet int64 `json:"oi_net"`
	// OIDelta is the day-over-day change of OINet.
	OIDelta int64 `json:"oi_delta"`
	// OIDeltaValue is OIDelta valued at the close, in 1e8 TWD, 2dp.
	OIDeltaValue float64 `json:"oi_delta_value"`
	// SpotNet is the foreign net spot buy/sell amount, in 1e8 TWD, 2dp.
	SpotNet float64 `json:"spot_net"`
	// OptSkew is the foreign call/put open-interest amount skew.
	OptSkew float64 `json:"opt_skew"`
}

// MTXPoint is one date of the small-contract positioning signal.
type MTXPoint struct {
	Date string `json:"date"`
	// Nets holds the per-category net open interest in query order.
	Nets []int64 `json:"nets"`
	// Total is the sum across categories.
	Total int64 `json:"total"`
	// Avg is the 5-day moving average of Total; zero until enough days.
	Avg float64 `json:"avg"`
	// Delta is Total minus the previous day's Avg, 1dp.
	Delta float64 `json:"delta"`
	// Weekday is ISO weekday of the date.
	Weekday int `json:"weekday"`
}

// Calculator reads the stored rows and assembles signal series.
type Calculator struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Calculator {
	return &Calculator{db: db, log: log}
}

// DateValue is a (date, value) query row.
type DateValue struct {
	Date  string
	Value int64
}

// ForeignFlows builds the TX foreign-investor signal from sinceDate on.
func (c *Calculator) ForeignFlows(sinceDate string) ([]DailyBasis, error) {
	closes, err := c.settlementCloses("TX", sinceDate)
	if err != nil {
		return nil, err
	}

	var oiRows []DateValue
	err = c.db.Model(&models.InstitutionalFutures{}).
		Select(`"Date" AS date, "OI_Net_Contract" AS value`).
		Where(`"Product" = ? AND "Institutional" = ? AND "Date" >= ?`, "TX", "FOR", sinceDate).
		Order(`"Date"`).
		Scan(&oiRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read futures OI rows: %w", err)
	}

	var spotRows []DateValue
	err = c.db.Model(&models.InstitutionalSpot{}).
		Select(`"Date" AS date, SUM("TR_Net_Amount") AS value`).
		Where(`"Institutional" LIKE ? AND "Date" >= ?`, "FOR%", sinceDate).
		Group(`"Date"`).
		Order(`"Date"`).
		Scan(&spotRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read spot rows: %w", err)
	}

	var opRows []models.InstitutionalOptions
	err = c.db.
		Where(`"Institutional" = ? AND "Date" >= ?`, "FOR", sinceDate).
		Order(`"Date", "PC"`).
		Find(&opRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read options rows: %w", err)
	}

	return BuildForeignFlows(closes, oiRows, spotRows, opRows), nil
}

// settlementCloses returns the last close at 13:30/13:45 per date. Both
// times are queried because the session close moved over the data's history.
func (c *Calculator) settlementCloses(symbol, sinceDate string) (map[string]int64, error) {
	table, err := models.CandleTable(symbol)
	if err != nil {
		return nil, err
	}
	var rows []models.Candle
	err = c.db.Table(table).
		Where(`"Date" >= ? AND ("Time" = ? OR "Time" = ?)`, sinceDate, "13:30:00", "13:45:00").
		Order(`"Date", "Time"`).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read closes for %s: %w", symbol, err)
	}
	closes := make(map[string]int64, len(rows))
	for _, r := range rows {
		closes[r.Date] = r.Close
	}
	return closes, nil
}

// BuildForeignFlows assembles the per-date series from the fetched rows. The
// first date carries no delta; it only seeds the day-over-day difference.
func BuildForeignFlows(closes map[string]int64, oi, spot []DateValue, op []models.InstitutionalOptions) []DailyBasis {
	byDate := make(map[string]*DailyBasis, len(oi))
	var order []string

	var prev int64
	for i, row := range oi {
		b := &DailyBasis{Date: row.Date, OINet: row.Value, Close: closes[row.Date]}
		if i > 0 {
			b.OIDelta = row.Value - prev
			b.OIDeltaValue = scaledValue(b.OIDelta*b.Close*txMultiplier, hundredMillion)
		}
		prev = row.Value
		byDate[row.Date] = b
		order = append(order, row.Date)
	}

	for _, row := range spot {
		if b, ok := byDate[row.Date]; ok {
			b.SpotNet = scaledValue(row.Value, hundredMillion)
		}
	}

	// Options rows come date-ordered with the CALL row before the PUT row.
	// An unpaired row is skipped.
	for i := 0; i+1 < len(op); {
		call, put := op[i], op[i+1]
		if call.Date != put.Date {
			i++
			continue
		}
		if b, ok := byDate[call.Date]; ok {
			b.OptSkew = OptionSkew(call, put)
		}
		i += 2
	}

	out := make([]DailyBasis, 0, len(order))
	for _, d := range order {
		out = append(out, *byDate[d])
	}
	return out
}

// OptionSkew values the foreign call/put open-interest imbalance: long call
// plus short put amounts against short call plus long put.
func OptionSkew(call, put models.InstitutionalOptions) float64 {
	raw := (call.OIBAmount + put.OISAmount) - (call.OISAmount + put.OIBAmount)
	return scaledValue(raw, optSkewUnit)
}

func scaledValue(amount int64, unit int64) float64 {
	v, _ := decimal.NewFromInt(amount).
		Div(decimal.NewFromInt(unit)).
		Round(2).
		Float64()
	return v
}

// MTXSignal builds the small-contract positioning series from sinceDate on.
func (c *Calculator) MTXSignal(sinceDate string) ([]MTXPoint, error) {
	var rows []models.InstitutionalFutures
	err := c.db.
		Where(`"Product" = ? AND "Date" >= ?`, "MTX", sinceDate).
		Order(`"Date", "Institutional"`).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read MTX rows: %w", err)
	}
	return BuildMTXSignal(rows), nil
}

const mtxAvgWindow = 5

// BuildMTXSignal groups per-category rows by date and computes the rolling
// 5-day average of the summed net position and the day's deviation from the
// previous average.
func BuildMTXSignal(rows []models.InstitutionalFutures) []MTXPoint {
	var points []MTXPoint
	var current *MTXPoint
	for _, r := range rows {
		if current == nil || current.Date != r.Date {
			if current != nil {
				points = append(points, *current)
			}
			current = &MTXPoint{Date: r.Date}
		}
		current.Nets = append(current.Nets, r.OINetContract)
		current.Total += r.OINetContract
	}
	if current != nil {
		points = append(points, *current)
	}

	totals := make([]int64, len(points))
	for i := range points {
		totals[i] = points[i].Total

		if d, err := time.Parse(models.DateLayout, points[i].Date); err == nil {
			wd := int(d.Weekday())
			if wd == 0 {
				wd = 7
			}
			points[i].Weekday = wd
		}

		if i+1 >= mtxAvgWindow {
			var sum int64
			for _, t := range totals[i+1-mtxAvgWindow : i+1] {
				sum += t
			}
			avg, _ := decimal.NewFromInt(sum).
				Div(decimal.NewFromInt(mtxAvgWindow)).
				Round(1).
				Float64()
			points[i].Avg = avg
		}
		if i >= mtxAvgWindow {
			delta, _ := decimal.NewFromInt(points[i].Total).
				Sub(decimal.NewFromFloat(points[i-1].Avg)).
				Round(1).
				Float64()
			points[i].Delta = delta
		}
	}
	return points
}

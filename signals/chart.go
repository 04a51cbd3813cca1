package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fexlab/fexmine/models"
)

// Chart rows stamp each date at 23:00 local so charting libraries bucket the
// point on the trading day itself.
const chartStampHour = 23

func chartStamp(date string) (int64, error) {
	d, err := time.ParseInLocation(models.DateLayout, date, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid signal date %q: %w", date, err)
	}
	return d.Add(chartStampHour * time.Hour).UnixMilli(), nil
}

// ForeignChartRows flattens the flow series for the charting JSON:
// [unix_ms, oi_delta_value, spot_net, opt_skew, oi_net]. Dates before the
// first computable delta are dropped.
func ForeignChartRows(series []DailyBasis) ([][]float64, error) {
	var rows [][]float64
	for i, b := range series {
		if i == 0 {
			continue
		}
		ts, err := chartStamp(b.Date)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []float64{
			float64(ts), b.OIDeltaValue, b.SpotNet, b.OptSkew, float64(b.OINet),
		})
	}
	return rows, nil
}

// MTXChartRows flattens the MTX series:
// [unix_ms, net_1, net_2, net_3, avg].
func MTXChartRows(points []MTXPoint) ([][]float64, error) {
	var rows [][]float64
	for _, p := range points {
		ts, err := chartStamp(p.Date)
		if err != nil {
			return nil, err
		}
		row := []float64{float64(ts)}
		for _, n := range p.Nets {
			row = append(row, float64(n))
		}
		row = append(row, p.Avg)
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteChart rewrites a chart JSON file wholesale; the series is recomputed
// from the store on every run.
func WriteChart(path string, rows [][]float64) error {
	raw, err := json.MarshalIndent(rows, "", "  ")
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

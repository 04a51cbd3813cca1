package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/models"
)

func minuteCandles(n int, startPrice int64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		at := time.Date(2024, 1, 2, 8, 46+i, 0, 0, time.UTC)
		p := startPrice + int64(i)
		out[i] = models.Candle{
			Date: at.Format(models.DateLayout), Time: at.Format(models.TimeLayout),
			Open: p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 10,
		}
	}
	return out
}

func TestGroupCandles(t *testing.T) {
	rows := minuteCandles(7, 100)

	out := GroupCandles(rows, 3)
	require.Len(t, out, 3, "two full batches plus a short final one")

	first := out[0]
	require.Equal(t, rows[2].Time, first.Time)
	require.Equal(t, rows[0].Open, first.Open)
	require.Equal(t, rows[2].Close, first.Close)
	require.Equal(t, int64(104), first.High)
	require.Equal(t, int64(98), first.Low)
	require.Equal(t, int64(30), first.Volume)

	// Partial final batch keeps its single row.
	last := out[2]
	require.Equal(t, rows[6].Time, last.Time)
	require.Equal(t, int64(10), last.Volume)
}

func TestGroupCandlesPassthrough(t *testing.T) {
	rows := minuteCandles(3, 100)
	out := GroupCandles(rows, 1)
	require.Equal(t, rows, out)
}

func TestGroupCandlesRelabelsTruncatedClose(t *testing.T) {
	rows := []models.Candle{
		{Date: "2024/01/02", Time: "13:29:00", Open: 100, High: 101, Low: 99, Close: 100, Volume: 5},
		{Date: "2024/01/02", Time: "13:30:00", Open: 100, High: 102, Low: 100, Close: 101, Volume: 5},
	}
	out := GroupCandles(rows, 2)
	require.Len(t, out, 1)
	require.Equal(t, "13:45:00", out[0].Time, "truncated exchange close carries the session end")
}

func TestFileName(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "TX_20240102-20240131", FileName("TX", start, end))
}

func TestMergeChartPoints(t *testing.T) {
	existing := []ChartPoint{
		{1000, 1, 1, 1, 1, 1},
		{2000, 2, 2, 2, 2, 2},
	}
	fresh := []ChartPoint{
		{2000, 9, 9, 9, 9, 9},
		{3000, 3, 3, 3, 3, 3},
	}

	merged := MergeChartPoints(existing, fresh)
	require.Len(t, merged, 3)
	require.Equal(t, int64(1000), merged[0][0])
	require.Equal(t, int64(2000), merged[1][0])
	require.Equal(t, int64(9), merged[1][1], "fresh point wins on timestamp collision")
	require.Equal(t, int64(3000), merged[2][0])
}

func TestAppendChartJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart_TX.json")
	e := New(nil, zap.NewNop())

	err := e.AppendChartJSON(path, minuteCandles(2, 100))
	require.NoError(t, err)

	// A second append with overlapping rows must not duplicate timestamps.
	err = e.AppendChartJSON(path, minuteCandles(3, 200))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var points []ChartPoint
	require.NoError(t, json.Unmarshal(raw, &points))
	require.Len(t, points, 3)
	require.Equal(t, int64(200), points[0][1], "overlapping rows replaced by the fresh run")
}

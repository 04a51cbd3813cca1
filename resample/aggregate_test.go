package resample

import (
	"errors"
	"testing"
	"time"

	"github.com/fexlab/fexmine/models"
)

func tick(hh, mm, ss int, price, volume int64) models.Tick {
	return models.Tick{
		Symbol:   "TX",
		Contract: "202401",
		Time:     time.Date(2024, 1, 2, hh, mm, ss, 0, time.UTC),
		Price:    price,
		Volume:   volume,
	}
}

func TestResampleSingleWindow(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 1, 17500, 2),
		tick(8, 45, 30, 17550, 2),
		tick(8, 45, 59, 17550, 2),
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(candles))
	}

	c := candles[0]
	if c.Date != "2024/01/02" || c.Time != "08:46:00" {
		t.Errorf("Expected candle at 2024/01/02 08:46:00, got %s %s", c.Date, c.Time)
	}
	if c.Open != 17500 || c.High != 17550 || c.Low != 17500 || c.Close != 17550 {
		t.Errorf("Expected OHLC 17500/17550/17500/17550, got %d/%d/%d/%d", c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume != 3 {
		t.Errorf("Expected halved volume 3, got %d", c.Volume)
	}
}

func TestResampleGapFillers(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 10, 100, 2),
		tick(9, 0, 30, 110, 4),
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	// Closed candle at 08:46, fillers 08:47 through 09:00, final buffer at 09:01.
	if len(candles) != 16 {
		t.Fatalf("Expected 16 candles, got %d", len(candles))
	}

	first := candles[0]
	if first.Time != "08:46:00" || first.Close != 100 || first.Volume != 1 {
		t.Errorf("Expected first candle 08:46:00 close=100 volume=1, got %s close=%d volume=%d",
			first.Time, first.Close, first.Volume)
	}

	for i, f := range candles[1:15] {
		wantTime := time.Date(2024, 1, 2, 8, 47+i, 0, 0, time.UTC).Format(models.TimeLayout)
		if f.Time != wantTime {
			t.Errorf("Expected filler %d at %s, got %s", i, wantTime, f.Time)
		}
		if f.Open != 100 || f.High != 100 || f.Low != 100 || f.Close != 100 {
			t.Errorf("Expected filler %d to carry previous close 100, got %d/%d/%d/%d",
				i, f.Open, f.High, f.Low, f.Close)
		}
		if f.Volume != 0 {
			t.Errorf("Expected filler %d volume 0, got %d", i, f.Volume)
		}
	}

	last := candles[15]
	if last.Time != "09:01:00" || last.Open != 110 || last.Volume != 2 {
		t.Errorf("Expected last candle 09:01:00 open=110 volume=2, got %s open=%d volume=%d",
			last.Time, last.Open, last.Volume)
	}
}

func TestResampleFlushTickJoinsOpenWindow(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 30, 100, 2),
		tick(8, 46, 20, 101, 2),
		tick(13, 45, 0, 102, 2),
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}

	last := candles[1]
	if last.Time != "08:47:00" {
		t.Errorf("Expected flush print to close at the open window 08:47:00, got %s", last.Time)
	}
	if last.Open != 101 || last.Close != 102 || last.Volume != 2 {
		t.Errorf("Expected open=101 close=102 volume=2, got open=%d close=%d volume=%d",
			last.Open, last.Close, last.Volume)
	}
}

func TestResampleOvernightFlush(t *testing.T) {
	ticks := []models.Tick{
		tick(15, 0, 10, 100, 2),
		{Symbol: "TX", Contract: "202401",
			Time: time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC), Price: 105, Volume: 2},
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(candles))
	}
	c := candles[0]
	if c.Date != "2024/01/02" || c.Time != "15:01:00" {
		t.Errorf("Expected candle at 2024/01/02 15:01:00, got %s %s", c.Date, c.Time)
	}
	if c.Close != 105 {
		t.Errorf("Expected close 105, got %d", c.Close)
	}
}

func TestResampleDayOpenReanchor(t *testing.T) {
	ticks := []models.Tick{
		tick(15, 0, 10, 100, 2),
		{Symbol: "TX", Contract: "202401",
			Time: time.Date(2024, 1, 3, 8, 45, 0, 0, time.UTC), Price: 110, Volume: 2},
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}
	if candles[0].Date != "2024/01/02" || candles[0].Time != "15:01:00" {
		t.Errorf("Expected overnight candle at 2024/01/02 15:01:00, got %s %s",
			candles[0].Date, candles[0].Time)
	}
	if candles[1].Date != "2024/01/03" || candles[1].Time != "08:46:00" {
		t.Errorf("Expected re-anchored day candle at 2024/01/03 08:46:00, got %s %s",
			candles[1].Date, candles[1].Time)
	}
}

func TestResampleVolumeTruncates(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 1, 100, 1),
		tick(8, 45, 2, 100, 2),
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if candles[0].Volume != 1 {
		t.Errorf("Expected truncated volume 1, got %d", candles[0].Volume)
	}
}

func TestResampleOutOfOrder(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 46, 0, 100, 2),
		tick(8, 45, 0, 100, 2),
	}

	_, err := Resample(ticks, Options{})
	if !errors.Is(err, ErrMalformedTick) {
		t.Errorf("Expected ErrMalformedTick for out-of-order stream, got %v", err)
	}
}

func TestResampleEmpty(t *testing.T) {
	_, err := Resample(nil, Options{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData for empty stream, got %v", err)
	}
}

func TestResampleInvariants(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 5, 103, 2),
		tick(8, 45, 15, 101, 4),
		tick(8, 45, 45, 104, 2),
		tick(8, 47, 10, 99, 2),
		tick(8, 52, 3, 100, 6),
	}

	candles, err := Resample(ticks, Options{})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	for _, c := range candles {
		if err := c.Validate(); err != nil {
			t.Errorf("Candle %s %s violates invariants: %v", c.Date, c.Time, err)
		}
	}
}

func TestResampleProgress(t *testing.T) {
	ticks := []models.Tick{
		tick(8, 45, 1, 100, 2),
		tick(8, 45, 2, 100, 2),
		tick(8, 45, 3, 100, 2),
		tick(8, 45, 4, 100, 2),
	}

	var calls int
	var lastDone, lastTotal int
	_, err := Resample(ticks, Options{
		ProgressEvery: 2,
		Progress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	if err != nil {
		t.Fatalf("Failed to resample: %v", err)
	}
	if calls == 0 {
		t.Fatal("Expected progress callbacks, got none")
	}
	if lastDone != 4 || lastTotal != 4 {
		t.Errorf("Expected final progress 4/4, got %d/%d", lastDone, lastTotal)
	}
}

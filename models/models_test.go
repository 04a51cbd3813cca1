package models

import (
	"testing"
	"time"
)

func TestCandleValidate(t *testing.T) {
	c := Candle{
		Date: "2024/01/02", Time: "08:46:00",
		Open: 17500, High: 17550, Low: 17500, Close: 17550, Volume: 3,
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Expected valid candle, got %v", err)
	}
}

func TestCandleValidateFiller(t *testing.T) {
	c := Candle{
		Date: "2024/01/02", Time: "08:47:00",
		Open: 17550, High: 17550, Low: 17550, Close: 17550, Volume: 0,
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Expected zero-volume filler to be valid, got %v", err)
	}
}

func TestCandleValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		c    Candle
	}{
		{"missing date", Candle{Time: "08:46:00", Open: 1, High: 1, Low: 1, Close: 1}},
		{"bad date", Candle{Date: "2024-01-02", Time: "08:46:00", Open: 1, High: 1, Low: 1, Close: 1}},
		{"bad time", Candle{Date: "2024/01/02", Time: "8:46", Open: 1, High: 1, Low: 1, Close: 1}},
		{"negative volume", Candle{Date: "2024/01/02", Time: "08:46:00", Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}},
		{"high below open", Candle{Date: "2024/01/02", Time: "08:46:00", Open: 10, High: 9, Low: 8, Close: 9}},
		{"low above close", Candle{Date: "2024/01/02", Time: "08:46:00", Open: 10, High: 10, Low: 9, Close: 8}},
	}
	for _, tc := range cases {
		if err := tc.c.Validate(); err == nil {
			t.Errorf("Expected %s to be rejected, got nil", tc.name)
		}
	}
}

func TestCandleTimestamp(t *testing.T) {
	c := Candle{Date: "2024/01/02", Time: "08:46:00"}

	ts, err := c.Timestamp(time.UTC)
	if err != nil {
		t.Fatalf("Failed to parse timestamp: %v", err)
	}
	want := time.Date(2024, 1, 2, 8, 46, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ts)
	}
}

func TestCandleTable(t *testing.T) {
	table, err := CandleTable("TX")
	if err != nil {
		t.Fatalf("Failed to build table name: %v", err)
	}
	if table != "twTX" {
		t.Errorf("Expected table twTX, got %s", table)
	}

	for _, bad := range []string{"", "tx", "TX;DROP", "VERYLONGSYMBOL"} {
		if _, err := CandleTable(bad); err == nil {
			t.Errorf("Expected symbol %q to be rejected, got nil", bad)
		}
	}
}

func TestInstitutionalTableNames(t *testing.T) {
	if got := (InstitutionalFutures{}).TableName(); got != "II_Fut" {
		t.Errorf("Expected II_Fut, got %s", got)
	}
	if got := (InstitutionalOptions{}).TableName(); got != "II_OP" {
		t.Errorf("Expected II_OP, got %s", got)
	}
	if got := (InstitutionalSpot{}).TableName(); got != "II_SPOT" {
		t.Errorf("Expected II_SPOT, got %s", got)
	}
}

package models

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout and TimeLayout are the canonical textual formats used in every
// candle table.
const (
	DateLayout = "2006/01/02"
	TimeLayout = "15:04:05"
)

// Tick is a single trade print taken from a daily report. Ticks are never
// persisted; they only live for the duration of one resampling pass.
type Tick struct {
	Symbol   string
	Contract string
	Time     time.Time
	Price    int64
	// Volume double-counts each trade (buy leg + sell leg). The halving
	// happens exactly once, when a candle closes.
	Volume int64
}

// Candle is one one-minute OHLCV bar. Date/Time are stored as canonical
// strings; Time is always an exact minute boundary.
type Candle struct {
	Date   string `gorm:"column:Date;size:10" json:"date"`
	Time   string `gorm:"column:Time;size:8" json:"time"`
	Open   int64  `gorm:"column:Open" json:"open"`
	High   int64  `gorm:"column:High" json:"high"`
	Low    int64  `gorm:"column:Low" json:"low"`
	Close  int64  `gorm:"column:Close" json:"close"`
	Volume int64  `gorm:"column:Volume" json:"volume"`
}

// Validate checks the OHLC invariants that every stored candle, including
// zero-volume fillers, must satisfy.
func (c *Candle) Validate() error {
	if c.Date == "" || c.Time == "" {
		return fmt.Errorf("candle missing date/time")
	}
	if _, err := time.Parse(DateLayout, c.Date); err != nil {
		return fmt.Errorf("invalid candle date %q: %w", c.Date, err)
	}
	if _, err := time.Parse(TimeLayout, c.Time); err != nil {
		return fmt.Errorf("invalid candle time %q: %w", c.Time, err)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s %s: negative volume %d", c.Date, c.Time, c.Volume)
	}
	if c.High < c.Open || c.High < c.Close || c.High < c.Low {
		return fmt.Errorf("candle %s %s: high %d below open/close/low", c.Date, c.Time, c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("candle %s %s: low %d above open/close", c.Date, c.Time, c.Low)
	}
	return nil
}

// Timestamp parses the candle's Date/Time back into a time.Time in loc.
func (c *Candle) Timestamp(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, c.Date+" "+c.Time, loc)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// CandleTable returns the per-symbol candle table name. Symbols feed table
// names, so anything outside the canonical code alphabet is rejected.
func CandleTable(symbol string) (string, error) {
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("invalid symbol %q", symbol)
	}
	return "tw" + symbol, nil
}

// InstitutionalFutures is one daily open-interest/trading row per product and
// institutional investor category.
type InstitutionalFutures struct {
	Date          string `gorm:"column:Date;primaryKey;size:10" json:"date"`
	Product       string `gorm:"column:Product;primaryKey;size:8" json:"product"`
	Institutional string `gorm:"column:Institutional;primaryKey;size:8" json:"institutional"`
	TRBContract   int64  `gorm:"column:TR_B_Contract" json:"tr_b_contract"`
	TRBAmount     int64  `gorm:"column:TR_B_Amount" json:"tr_b_amount"`
	TRSContract   int64  `gorm:"column:TR_S_Contract" json:"tr_s_contract"`
	TRSAmount     int64  `gorm:"column:TR_S_Amount" json:"tr_s_amount"`
	TRNetContract int64  `gorm:"column:TR_Net_Contract" json:"tr_net_contract"`
	TRNetAmount   int64  `gorm:"column:TR_Net_Amount" json:"tr_net_amount"`
	OIBContract   int64  `gorm:"column:OI_B_Contract" json:"oi_b_contract"`
	OIBAmount     int64  `gorm:"column:OI_B_Amount" json:"oi_b_amount"`
	OISContract   int64  `gorm:"column:OI_S_Contract" json:"oi_s_contract"`
	OISAmount     int64  `gorm:"column:OI_S_Amount" json:"oi_s_amount"`
	OINetContract int64  `gorm:"column:OI_Net_Contract" json:"oi_net_contract"`
	OINetAmount   int64  `gorm:"column:OI_Net_Amount" json:"oi_net_amount"`
}

func (InstitutionalFutures) TableName() string { return "II_Fut" }

// InstitutionalOptions mirrors InstitutionalFutures with an extra CALL/PUT
// side column.
type InstitutionalOptions struct {
	Date          string `gorm:"column:Date;primaryKey;size:10" json:"date"`
	Product       string `gorm:"column:Product;primaryKey;size:8" json:"product"`
	Side          string `gorm:"column:PC;primaryKey;size:4" json:"side"`
	Institutional string `gorm:"column:Institutional;primaryKey;size:8" json:"institutional"`
	TRBContract   int64  `gorm:"column:TR_B_Contract" json:"tr_b_contract"`
	TRBAmount     int64  `gorm:"column:TR_B_Amount" json:"tr_b_amount"`
	TRSContract   int64  `gorm:"column:TR_S_Contract" json:"tr_s_contract"`
	TRSAmount     int64  `gorm:"column:TR_S_Amount" json:"tr_s_amount"`
	TRNetContract int64  `gorm:"column:TR_Net_Contract" json:"tr_net_contract"`
	TRNetAmount   int64  `gorm:"column:TR_Net_Amount" json:"tr_net_amount"`
	OIBContract   int64  `gorm:"column:OI_B_Contract" json:"oi_b_contract"`
	OIBAmount     int64  `gorm:"column:OI_B_Amount" json:"oi_b_amount"`
	OISContract   int64  `gorm:"column:OI_S_Contract" json:"oi_s_contract"`
	OISAmount     int64  `gorm:"column:OI_S_Amount" json:"oi_s_amount"`
	OINetContract int64  `gorm:"column:OI_Net_Contract" json:"oi_net_contract"`
	OINetAmount   int64  `gorm:"column:OI_Net_Amount" json:"oi_net_amount"`
}

func (InstitutionalOptions) TableName() string { return "II_OP" }

// InstitutionalSpot is one daily spot-market trading row per institutional
// investor category.
type InstitutionalSpot struct {
	Date          string `gorm:"column:Date;primaryKey;size:10" json:"date"`
	Institutional string `gorm:"column:Institutional;primaryKey;size:8" json:"institutional"`
	TRBAmount     int64  `gorm:"column:TR_B_Amount" json:"tr_b_amount"`
	TRSAmount     int64  `gorm:"column:TR_S_Amount" json:"tr_s_amount"`
	TRNetAmount   int64  `gorm:"column:TR_Net_Amount" json:"tr_net_amount"`
}

func (InstitutionalSpot) TableName() string { return "II_SPOT" }

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fexlab/fexmine/config"
	"github.com/fexlab/fexmine/database"
	"github.com/fexlab/fexmine/logger"
)

var rootCMD = &cobra.Command{
	Use:   "fexmine",
	Short: "TAIFEX daily report mining and resampling tool",
	Long: `fexmine downloads TAIFEX daily futures/options tick reports, resamples
the ticks into one-minute OHLCV candles stored per symbol, ingests
institutional daily rows, and exports resampled candles and trading-signal
aggregates for charting.`,
}

func Execute() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and opens the shared dependencies every
// subcommand needs.
func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

const argDateLayout = "20060102"

// parseDateRange parses "YYYYMMDD" or "YYYYMMDD-YYYYMMDD". A missing end
// date means today.
func parseDateRange(s string) (time.Time, time.Time, error) {
	today := time.Now().Truncate(24 * time.Hour)

	var startStr, endStr string
	if n := len(argDateLayout); len(s) == n {
		startStr = s
	} else if len(s) == 2*n+1 && s[n] == '-' {
		startStr, endStr = s[:n], s[n+1:]
	} else {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date range %q, want YYYYMMDD[-YYYYMMDD]", s)
	}

	start, err := time.Parse(argDateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end := today
	if endStr != "" {
		end, err = time.Parse(argDateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
	}
	if start.After(end) || start.After(today) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s after end date %s or today", startStr, endStr)
	}
	return start, end, nil
}

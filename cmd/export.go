package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/export"
)

var exportCMD = &cobra.Command{
	Use:   "export START END [SYMBOL] [INTERVAL]",
	Short: "Export resampled candles for a date range",
	Long: `Re-aggregate stored one-minute day-session candles into INTERVAL-row
batches and write a flat delimited file plus the cumulative per-symbol chart
JSON. SYMBOL defaults to TX, INTERVAL to 300.`,
	Args: cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		start, err := time.Parse(argDateLayout, args[0])
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", args[0], err)
		}
		end, err := time.Parse(argDateLayout, args[1])
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", args[1], err)
		}
		symbol := "TX"
		if len(args) > 2 {
			symbol = args[2]
		}
		interval := 300
		if len(args) > 3 {
			interval, err = strconv.Atoi(args[3])
			if err != nil || interval < 1 {
				return fmt.Errorf("invalid interval %q", args[3])
			}
		}

		exporter := export.New(db, log)
		path, err := exporter.ExportRange(cfg.ExportDir, symbol, start, end, interval)
		if err != nil {
			return err
		}

		rows, err := exporter.ResampleRange(symbol, start, end, interval)
		if err != nil {
			return err
		}
		chartPath := filepath.Join(cfg.ExportDir, "chart_"+symbol+".json")
		if err := exporter.AppendChartJSON(chartPath, rows); err != nil {
			return err
		}

		log.Info("export done",
			zap.String("file", path),
			zap.String("chart", chartPath),
			zap.Int("rows", len(rows)))
		return nil
	},
}

func init() {
	rootCMD.AddCommand(exportCMD)
}

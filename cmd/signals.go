package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/signals"
)

var signalsSince string

var signalsCMD = &cobra.Command{
	Use:   "signals",
	Short: "Rebuild the trading-signal chart files",
	Long: `Derive the foreign-investor flow series and the MTX positioning series
from the institutional tables and write the charting JSON files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		calc := signals.New(db, log)

		flows, err := calc.ForeignFlows(signalsSince)
		if err != nil {
			return err
		}
		rows, err := signals.ForeignChartRows(flows)
		if err != nil {
			return err
		}
		txPath := filepath.Join(cfg.ExportDir, "data_TX.json")
		if err := signals.WriteChart(txPath, rows); err != nil {
			return err
		}

		mtx, err := calc.MTXSignal(signalsSince)
		if err != nil {
			return err
		}
		rows, err = signals.MTXChartRows(mtx)
		if err != nil {
			return err
		}
		mtxPath := filepath.Join(cfg.ExportDir, "data_MTX.json")
		if err := signals.WriteChart(mtxPath, rows); err != nil {
			return err
		}

		log.Info("signals rebuilt",
			zap.String("tx", txPath),
			zap.String("mtx", mtxPath),
			zap.Int("tx_rows", len(flows)),
			zap.Int("mtx_rows", len(mtx)))
		return nil
	},
}

func init() {
	signalsCMD.Flags().StringVar(&signalsSince, "since", "2020/01/01",
		"earliest date (YYYY/MM/DD) to include")
	rootCMD.AddCommand(signalsCMD)
}

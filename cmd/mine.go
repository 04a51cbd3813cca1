package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/archive"
	"github.com/fexlab/fexmine/ingest"
	"github.com/fexlab/fexmine/metrics"
)

var (
	mineDate    string
	mineItem    string
	mineSymbol  string
	mineRecover bool
)

var mineCMD = &cobra.Command{
	Use:   "mine",
	Short: "Mine daily tick reports into one-minute candles",
	Long: `Download (or restore from the archive mirror) the daily report archives for
a date or date range, resample the tick prints into one-minute OHLCV candles
and upsert them into the per-symbol candle table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		start, end, err := parseDateRange(mineDate)
		if err != nil {
			return err
		}
		kind := archive.ReportKind(mineItem)
		if kind != archive.FutReport && kind != archive.OptReport {
			return fmt.Errorf("unknown report item %q", mineItem)
		}

		var remote archive.RemoteStore
		if cfg.ArchiveMirrorDir != "" {
			remote, err = archive.NewDirStore(cfg.ArchiveMirrorDir)
			if err != nil {
				return err
			}
		} else {
			log.Warn("archive mirror disabled, archives only kept locally")
		}

		metrics.NewServer(cfg.MetricsPort).Start()

		dl := archive.NewDownloader(cfg.FutReportURL, cfg.OptReportURL, cfg.DataDir, log)
		miner := ingest.NewMiner(db, dl, remote, log)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := miner.MineRange(ctx, start, end, kind, mineSymbol, mineRecover); err != nil {
			return err
		}
		log.Info("mining done", zap.String("symbol", mineSymbol))
		return nil
	},
}

func init() {
	mineCMD.Flags().StringVarP(&mineDate, "date", "d", time.Now().Format(argDateLayout),
		"date or range to mine, e.g. 20180101 or 20180101-20180131")
	mineCMD.Flags().StringVar(&mineItem, "item", string(archive.FutReport),
		"report kind: fut_rpt or opt_rpt")
	mineCMD.Flags().StringVar(&mineSymbol, "symbol", "TX", "futures symbol to extract")
	mineCMD.Flags().BoolVar(&mineRecover, "recover", false,
		"force redownload and reupload even when archives exist")
	rootCMD.AddCommand(mineCMD)
}

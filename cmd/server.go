package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/api"
	"github.com/fexlab/fexmine/metrics"
)

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the charting API server",
	Long:  `Serve resampled candles and signal series over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		metrics.NewServer(cfg.MetricsPort).Start()

		r := api.SetupRoutes(api.NewHandler(db, log))
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("starting server", zap.String("addr", addr))
		return r.Run(addr)
	},
}

func init() {
	rootCMD.AddCommand(serverCMD)
}

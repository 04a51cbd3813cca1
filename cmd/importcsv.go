package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexlab/fexmine/ingest"
)

var importItem string

var importCSVCMD = &cobra.Command{
	Use:   "import-csv FILE",
	Short: "Import a legacy Big5 institutional dump",
	Long: `One-off ETL for the historical institutional CSV dumps. The file is
decoded from Big5, localized vocabulary is mapped to canonical codes and the
rows are batch-inserted into the matching institutional table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		item := ingest.CSVItem(importItem)
		if item != ingest.CSVFutures && item != ingest.CSVOptions {
			return fmt.Errorf("unknown csv item %q, want Fut or OP", importItem)
		}

		n, err := ingest.ImportInstitutionalCSV(cmd.Context(), db, args[0], item, log)
		if err != nil {
			return err
		}
		log.Info("import done", zap.Int("rows", n))
		return nil
	},
}

func init() {
	importCSVCMD.Flags().StringVar(&importItem, "item", string(ingest.CSVFutures),
		"dump kind: Fut or OP")
	rootCMD.AddCommand(importCSVCMD)
}

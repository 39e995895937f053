package commands

import (
	"log/slog"

	"uteconsumo-backend/lib/restyutil"
	"uteconsumo-backend/lib/serviceutil"
	"uteconsumo-backend/services/consumo"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the polling daemon: scrape on a schedule, track daily deltas and push sensors.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		if *verbose {
			consumo.SetRestyInstrumentOutput(
				restyutil.NewFilesystemOutput(".dev/resty/push"),
			)
		}

		service, err := consumo.NewService(cfg)
		if err != nil {
			serviceutil.Fatal("init service", err)
		}

		slog.Info("uteconsumo daemon started", "account_id", cfg.AccountId)
		service.Run(cmd.Context())
	},
}

package commands

import (
	"context"
	"fmt"
	"os"

	"uteconsumo-backend/lib/configutil"
	"uteconsumo-backend/lib/telemetry"
	"uteconsumo-backend/services/consumo"

	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "uteconsumo",
	Short: "uteconsumo scrapes UTE electricity consumption and mirrors it into an automation hub.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging/instrumentation.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() (consumo.Config, error) {
	return configutil.ReadConfig[consumo.Config]("config.json5")
}

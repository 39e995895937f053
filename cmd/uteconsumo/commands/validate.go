package commands

import (
	"fmt"
	"os"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Checks whether the configured UTE credentials are accepted by the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		scraper := ute.NewScraper(ute.Credentials{
			Username:  cfg.Username,
			Password:  cfg.Password,
			AccountID: cfg.AccountId,
		})
		defer scraper.Close()

		ok, err := scraper.ValidateCredentials(cmd.Context())
		if err != nil {
			serviceutil.Fatal("validate credentials", err)
		}
		if !ok {
			fmt.Println("credentials rejected")
			os.Exit(1)
		}
		fmt.Println("credentials ok")
	},
}

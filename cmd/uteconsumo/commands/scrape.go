package commands

import (
	"fmt"
	"os"

	"uteconsumo-backend/lib/scrapers/ute"
	"uteconsumo-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Performs a single scrape and prints the consumption summary.",
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

		data, err := scraper.GetConsumptionData(cmd.Context())
		if err != nil {
			serviceutil.Fatal("scrape", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Metric", "Value"})
		t.AppendRows([]table.Row{
			{"Period", fmt.Sprintf("%s - %s", data.PeriodStart, data.PeriodEnd)},
			{"Peak (Punta)", fmt.Sprintf("%.2f kWh", data.PeakEnergyKwh)},
			{"Off-peak (Fuera de Punta)", fmt.Sprintf("%.2f kWh", data.OffPeakEnergyKwh)},
			{"Total", fmt.Sprintf("%.2f kWh", data.TotalEnergyKwh)},
		})
		if data.Efficiency != nil {
			t.AppendRow(table.Row{"Efficiency", fmt.Sprintf("%.2f %%", *data.Efficiency)})
		}
		t.AppendRow(table.Row{"Supply point", data.SupplyPointId})
		t.Render()
	},
}

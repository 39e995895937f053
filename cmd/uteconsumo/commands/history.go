package commands

import (
	"fmt"
	"os"
	"time"

	"uteconsumo-backend/lib/serviceutil"
	"uteconsumo-backend/lib/timezone"
	"uteconsumo-backend/services/consumo"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDays *int

func init() {
	historyDays = historyCmd.Flags().Int("days", 30, "How many days of archived readings to show.")
	rootCmd.AddCommand(historyCmd)
}

func formatOptional(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", *v, unit)
}

var historyCmd = &cobra.Command{
	Use:   "history [--days <n>]",
	Short: "Prints archived consumption readings.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		path := cfg.HistoryDb
		if path == "" {
			path = "ute_history.db"
		}

		archive, err := consumo.OpenArchive(path)
		if err != nil {
			serviceutil.Fatal("open history db", err)
		}
		defer archive.Close()

		since := timezone.Now().AddDate(0, 0, -*historyDays)
		rows, err := archive.Since(cmd.Context(), since)
		if err != nil {
			serviceutil.Fatal("query history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Period", "Peak", "Off-peak", "Total", "Daily total"})
		for _, r := range rows {
			t.AppendRow(table.Row{
				r.Time.In(timezone.Location).Format(time.DateTime),
				fmt.Sprintf("%s - %s", r.PeriodStart, r.PeriodEnd),
				fmt.Sprintf("%.2f kWh", r.PeakKwh),
				fmt.Sprintf("%.2f kWh", r.OffPeakKwh),
				fmt.Sprintf("%.2f kWh", r.TotalKwh),
				formatOptional(r.DailyTotal, "kWh"),
			})
		}
		t.Render()
	},
}

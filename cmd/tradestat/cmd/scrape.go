package cmd

import (
	"fmt"
	"log"
	"os"

	"tradestat-ingestor/lib/scrapers/tradestat"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeFeature   string
	scrapeDirection string
	scrapeEntity    string
	scrapePeriod    string
	scrapeMonth     string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeFeature, "feature", "", "report name, e.g. commodity_wise_all_countries")
	scrapeCmd.Flags().StringVar(&scrapeDirection, "direction", "export", "trade direction: export or import")
	scrapeCmd.Flags().StringVar(&scrapeEntity, "entity", "", "entity code: HS code, region code or commodity code")
	scrapeCmd.Flags().StringVar(&scrapePeriod, "period", "", "reporting period, e.g. 2023-24")
	scrapeCmd.Flags().StringVar(&scrapeMonth, "month", "", "month number for the monthly report family")
	scrapeCmd.MarkFlagRequired("feature")
	scrapeCmd.MarkFlagRequired("entity")
	scrapeCmd.MarkFlagRequired("period")

	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes one report slice, records the new version and prints what changed.",
	Run: func(cmd *cobra.Command, args []string) {
		service, raw, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer raw.Close()

		result, err := service.Ingest(cmd.Context(), scrapeFeature, tradestat.Request{
			Direction: tradestat.Direction(scrapeDirection),
			Entity:    scrapeEntity,
			Period:    scrapePeriod,
			Month:     scrapeMonth,
		})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf(
			"%s %s: %s (%s)\n",
			result.Key, result.Period,
			result.Changes.ChangeType, result.Changes.Drift,
		)
		fmt.Printf(
			"records: %d, completeness: %.1f%% (%s), changed: %d (%.1f%%)\n",
			result.Snapshot.Quality.TotalRecords,
			result.Snapshot.Quality.CompletenessPct,
			result.Snapshot.Quality.Status,
			result.Changes.TotalChanges,
			result.Changes.PercentChange,
		)

		if len(result.Snapshot.Records) == 0 {
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		header := table.Row{"#", "Identity"}
		report, _ := tradestat.Lookup(scrapeFeature)
		for _, col := range report.Shape.Columns {
			header = append(header, col.Name)
		}
		t.AppendHeader(header)

		for _, rec := range result.Snapshot.Records {
			row := table.Row{rec.SerialNo, rec.Identity}
			for _, col := range report.Shape.Columns {
				row = append(row, formatValue(rec.Value(col.Name)))
			}
			t.AppendRow(row)
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

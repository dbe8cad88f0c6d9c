package cmd

import (
	"fmt"
	"log"
	"os"

	"tradestat-ingestor/lib/scrapers/tradestat"
	"tradestat-ingestor/services/ingest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	batchFeature   string
	batchDirection string
	batchEntity    string
	batchPeriods   []string
	batchMonth     string
	batchWorkers   int
)

func init() {
	batchCmd.Flags().StringVar(&batchFeature, "feature", "", "report name, e.g. commodity_wise_all_countries")
	batchCmd.Flags().StringVar(&batchDirection, "direction", "export", "trade direction: export or import")
	batchCmd.Flags().StringVar(&batchEntity, "entity", "", "entity code: HS code, region code or commodity code")
	batchCmd.Flags().StringSliceVar(&batchPeriods, "periods", nil, "reporting periods, e.g. 2021-22,2022-23,2023-24")
	batchCmd.Flags().StringVar(&batchMonth, "month", "", "month number for the monthly report family")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 3, "number of periods scraped concurrently")
	batchCmd.MarkFlagRequired("feature")
	batchCmd.MarkFlagRequired("entity")
	batchCmd.MarkFlagRequired("periods")

	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrapes one report across several periods concurrently.",
	Run: func(cmd *cobra.Command, args []string) {
		service, raw, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer raw.Close()

		results, err := service.IngestBatch(cmd.Context(), ingest.BatchRequest{
			Feature:   batchFeature,
			Direction: tradestat.Direction(batchDirection),
			Entity:    batchEntity,
			Periods:   batchPeriods,
			Month:     batchMonth,
			Workers:   batchWorkers,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Period", "Records", "Completeness", "Change", "Drift", "Changed %"})
		for _, r := range results {
			t.AppendRow(table.Row{
				r.Period,
				r.Snapshot.Quality.TotalRecords,
				fmt.Sprintf("%.1f%% (%s)", r.Snapshot.Quality.CompletenessPct, r.Snapshot.Quality.Status),
				r.Changes.ChangeType,
				r.Changes.Drift,
				fmt.Sprintf("%.1f", r.Changes.PercentChange),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if err != nil {
			os.Exit(1)
		}
	},
}

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"tradestat-ingestor/lib/versionstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	logFeature   string
	logDirection string
	logEntity    string
)

func init() {
	changelogCmd.Flags().StringVar(&logFeature, "feature", "", "report name")
	changelogCmd.Flags().StringVar(&logDirection, "direction", "export", "trade direction: export or import")
	changelogCmd.Flags().StringVar(&logEntity, "entity", "", "entity code")
	changelogCmd.MarkFlagRequired("feature")
	changelogCmd.MarkFlagRequired("entity")

	rootCmd.AddCommand(changelogCmd)
}

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Prints every recorded period of a report slice and what changed in each.",
	Run: func(cmd *cobra.Command, args []string) {
		versions, err := openVersions()
		if err != nil {
			log.Fatal(err)
		}

		summaries, err := versions.Changelog(versionstore.Key{
			Feature:   logFeature,
			Direction: logDirection,
			Entity:    logEntity,
		})
		if err != nil {
			log.Fatal(err)
		}
		if len(summaries) == 0 {
			fmt.Println("no recorded history")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Period", "Recorded", "Quality", "Change", "Drift", "Added/Removed/Modified", "Checksum"})
		for _, s := range summaries {
			t.AppendRow(table.Row{
				s.Period,
				s.Timestamp.Format(time.DateTime),
				fmt.Sprintf("%.1f%% (%s)", s.Quality.CompletenessPct, s.Quality.Status),
				s.Changes.ChangeType,
				s.Changes.Drift,
				fmt.Sprintf("%d/%d/%d", len(s.Changes.Added), len(s.Changes.Removed), len(s.Changes.Modified)),
				shortChecksum(s.Checksum),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

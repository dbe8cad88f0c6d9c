package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"tradestat-ingestor/lib/versionstore"

	"github.com/spf13/cobra"
)

var (
	compareFeature   string
	compareDirection string
	compareEntity    string
	comparePeriod    string
)

func init() {
	compareCmd.Flags().StringVar(&compareFeature, "feature", "", "report name")
	compareCmd.Flags().StringVar(&compareDirection, "direction", "export", "trade direction: export or import")
	compareCmd.Flags().StringVar(&compareEntity, "entity", "", "entity code")
	compareCmd.Flags().StringVar(&comparePeriod, "period", "", "reporting period to compare against the nearest earlier one")
	compareCmd.MarkFlagRequired("feature")
	compareCmd.MarkFlagRequired("entity")
	compareCmd.MarkFlagRequired("period")

	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Prints a recorded period next to the nearest earlier one as JSON.",
	Run: func(cmd *cobra.Command, args []string) {
		versions, err := openVersions()
		if err != nil {
			log.Fatal(err)
		}

		comparison, err := versions.Compare(versionstore.Key{
			Feature:   compareFeature,
			Direction: compareDirection,
			Entity:    compareEntity,
		}, comparePeriod)
		if err != nil {
			log.Fatal(err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(comparison); err != nil {
			log.Fatal(err)
		}

		if comparison.PreviousPeriod == "" {
			fmt.Fprintln(os.Stderr, "no earlier period recorded, nothing to compare against")
		}
	},
}

package cmd

import (
	"encoding/json"
	"log"
	"os"

	"tradestat-ingestor/lib/versionstore"
	"tradestat-ingestor/services/ingest"

	"github.com/spf13/cobra"
)

var (
	consFeature   string
	consDirection string
	consEntity    string
	consOut       string
)

func init() {
	consolidateCmd.Flags().StringVar(&consFeature, "feature", "", "report name")
	consolidateCmd.Flags().StringVar(&consDirection, "direction", "export", "trade direction: export or import")
	consolidateCmd.Flags().StringVar(&consEntity, "entity", "", "entity code")
	consolidateCmd.Flags().StringVar(&consOut, "out", "", "output file, defaults to stdout")
	consolidateCmd.MarkFlagRequired("feature")
	consolidateCmd.MarkFlagRequired("entity")

	rootCmd.AddCommand(consolidateCmd)
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Bundles every recorded period of a report slice into one JSON document, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		versions, err := openVersions()
		if err != nil {
			log.Fatal(err)
		}
		service := ingest.NewService(ingest.Options{Versions: versions})

		consolidated, err := service.Consolidate(versionstore.Key{
			Feature:   consFeature,
			Direction: consDirection,
			Entity:    consEntity,
		})
		if err != nil {
			log.Fatal(err)
		}

		out := os.Stdout
		if consOut != "" {
			out, err = os.Create(consOut)
			if err != nil {
				log.Fatal(err)
			}
			defer out.Close()
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(consolidated); err != nil {
			log.Fatal(err)
		}
	},
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"tradestat-ingestor/lib/rawstore"
	"tradestat-ingestor/lib/scrapers/tradestat"
	"tradestat-ingestor/lib/versionstore"
	"tradestat-ingestor/services/ingest"

	"github.com/spf13/cobra"
)

var (
	baseUrl string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "tradestat",
	Short: "tradestat scrapes the trade statistics portal and tracks how its published figures change over time.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseUrl, "base-url", "https://tradestat.commerce.gov.in", "base url of the trade statistics portal")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory holding version histories and the raw page archive")
}

// openService wires a full ingest service; raw must be closed by the
// caller once done.
func openService() (ingest.Service, rawstore.Store, error) {
	client, err := tradestat.NewClient(tradestat.ClientOptions{
		BaseUrl: baseUrl,
	})
	if err != nil {
		return ingest.Service{}, rawstore.Store{}, err
	}

	versions, err := versionstore.NewStore(dataDir)
	if err != nil {
		return ingest.Service{}, rawstore.Store{}, err
	}

	raw, err := rawstore.Open(filepath.Join(dataDir, "raw_pages.db"))
	if err != nil {
		return ingest.Service{}, rawstore.Store{}, err
	}

	service := ingest.NewService(ingest.Options{
		Client:   client,
		Versions: versions,
		Raw:      raw,
	})
	return service, raw, nil
}

func openVersions() (versionstore.Store, error) {
	return versionstore.NewStore(dataDir)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"tradestat-ingestor/lib/configutil"
	"tradestat-ingestor/lib/delta"
	"tradestat-ingestor/lib/rawstore"
	"tradestat-ingestor/lib/scrapers/tradestat"
	"tradestat-ingestor/lib/serviceutil"
	"tradestat-ingestor/lib/telemetry"
	"tradestat-ingestor/lib/versionstore"
	"tradestat-ingestor/services/ingest"

	"github.com/robfig/cron/v3"
)

type JobConfig struct {
	Feature   string   `json:"feature"`
	Direction string   `json:"direction"`
	Entity    string   `json:"entity"`
	Periods   []string `json:"periods"`
	Month     string   `json:"month"`
}

type Config struct {
	BaseUrl string `json:"base_url"`
	DataDir string `json:"data_dir"`
	// standard cron expression, e.g. "0 6 * * *" for daily at 6am
	Schedule string `json:"schedule"`
	// periods of one job scraped concurrently
	Workers int         `json:"workers"`
	Jobs    []JobConfig `json:"jobs"`
}

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)

	config, err := configutil.ReadConfig[Config]("ingestd.json5")
	if err != nil {
		serviceutil.Fatal("failed to read ingestd.json5", err)
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.Schedule == "" {
		config.Schedule = "0 6 * * *"
	}

	err = telemetry.SetupFromEnv(ctx, "ingestd")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	client, err := tradestat.NewClient(tradestat.ClientOptions{
		BaseUrl: config.BaseUrl,
	})
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	versions, err := versionstore.NewStore(config.DataDir)
	if err != nil {
		serviceutil.Fatal("failed to open version store", err)
	}

	raw, err := rawstore.Open(filepath.Join(config.DataDir, "raw_pages.db"))
	if err != nil {
		serviceutil.Fatal("failed to open raw page archive", err)
	}
	defer raw.Close()

	service := ingest.NewService(ingest.Options{
		Client:   client,
		Versions: versions,
		Raw:      raw,
	})

	scheduler := cron.New()
	_, err = scheduler.AddFunc(config.Schedule, func() {
		runJobs(ctx, service, config)
	})
	if err != nil {
		serviceutil.Fatal("invalid cron schedule", err)
	}

	slog.Info("ingestd started",
		"base_url", config.BaseUrl,
		"schedule", config.Schedule,
		"jobs", len(config.Jobs),
	)
	scheduler.Start()

	// run once at startup so a fresh deployment has data before the
	// first scheduled tick
	runJobs(ctx, service, config)

	<-ctx.Done()
	scheduler.Stop()
	slog.Info("ingestd stopped")
}

func runJobs(ctx context.Context, service ingest.Service, config Config) {
	for _, job := range config.Jobs {
		if ctx.Err() != nil {
			return
		}

		results, err := service.IngestBatch(ctx, ingest.BatchRequest{
			Feature:   job.Feature,
			Direction: tradestat.Direction(job.Direction),
			Entity:    job.Entity,
			Periods:   job.Periods,
			Month:     job.Month,
			Workers:   config.Workers,
		})
		if err != nil {
			slog.Error("job finished with failures",
				"feature", job.Feature,
				"direction", job.Direction,
				"entity", job.Entity,
				"succeeded", len(results),
				"err", err,
			)
			continue
		}

		for _, r := range results {
			if r.Changes.Drift == delta.DriftCritical || r.Changes.Drift == delta.DriftSignificant {
				slog.Warn("large revision in published figures",
					"key", r.Key.String(),
					"period", r.Period,
					"drift", r.Changes.Drift,
					"changed_pct", r.Changes.PercentChange,
				)
			}
		}
	}
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tradestat-ingestor/lib/delta"
	"tradestat-ingestor/lib/htmltable"
	"tradestat-ingestor/lib/rawstore"
	"tradestat-ingestor/lib/scrapers/tradestat"
	"tradestat-ingestor/lib/versionstore"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/ingest")

type Service struct {
	client   *tradestat.Client
	versions versionstore.Store
	raw      rawstore.Store
	deltas   delta.Thresholds
	quality  htmltable.QualityThresholds
}

type Options struct {
	Client   *tradestat.Client
	Versions versionstore.Store
	Raw      rawstore.Store
	// zero values select the defaults
	Deltas  delta.Thresholds
	Quality htmltable.QualityThresholds
}

func NewService(opts Options) Service {
	if opts.Deltas == (delta.Thresholds{}) {
		opts.Deltas = delta.DefaultThresholds
	}
	if opts.Quality == (htmltable.QualityThresholds{}) {
		opts.Quality = htmltable.DefaultQualityThresholds
	}
	return Service{
		client:   opts.Client,
		versions: opts.Versions,
		raw:      opts.Raw,
		deltas:   opts.Deltas,
		quality:  opts.Quality,
	}
}

// Result is the outcome of ingesting one report slice.
type Result struct {
	Key      versionstore.Key   `json:"key"`
	Period   string             `json:"period"`
	Meta     tradestat.PageMeta `json:"page_meta"`
	Snapshot htmltable.Snapshot `json:"snapshot"`
	Changes  delta.Diff         `json:"changes"`
}

// Ingest runs one full cycle for a report slice: fetch the page,
// archive the raw HTML, extract the table, compare against the last
// recorded version of the same period and record the new version.
func (s Service) Ingest(ctx context.Context, featureName string, req tradestat.Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	span.SetAttributes(
		attribute.String("feature", featureName),
		attribute.String("direction", string(req.Direction)),
		attribute.String("entity", req.Entity),
		attribute.String("period", req.Period),
	)

	report, ok := tradestat.Lookup(featureName)
	if !ok {
		err := fmt.Errorf("unknown report %q", featureName)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	html, err := s.client.FetchReport(ctx, report, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Result{}, err
	}

	err = s.raw.Save(ctx, rawstore.Page{
		Feature:   featureName,
		Direction: string(req.Direction),
		Entity:    req.Entity,
		Period:    req.Period,
		Html:      html,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "raw archive failed")
		return Result{}, err
	}

	return s.Process(ctx, featureName, req, html)
}

// Process runs the extraction and change detection half of a cycle on
// HTML that has already been fetched. Replay from the raw archive goes
// through here directly.
func (s Service) Process(ctx context.Context, featureName string, req tradestat.Request, html string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()

	report, ok := tradestat.Lookup(featureName)
	if !ok {
		err := fmt.Errorf("unknown report %q", featureName)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	shape := report.Shape
	shape.Quality = s.quality

	snapshot, err := htmltable.Extract(html, shape)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return Result{}, err
	}

	var meta tradestat.PageMeta
	if doc, derr := goquery.NewDocumentFromReader(strings.NewReader(html)); derr == nil {
		meta = tradestat.ParsePageMeta(doc)
	}

	key := versionstore.Key{
		Feature:   featureName,
		Direction: string(req.Direction),
		Entity:    req.Entity,
	}

	previous, _, err := s.versions.Previous(key, req.Period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history read failed")
		return Result{}, err
	}

	changes := delta.DetectWithThresholds(snapshot, previous, s.deltas)

	err = s.versions.SaveVersion(key, req.Period, snapshot, changes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history write failed")
		return Result{}, err
	}

	slog.InfoContext(ctx, "ingested report slice",
		"feature", featureName,
		"direction", req.Direction,
		"entity", req.Entity,
		"period", req.Period,
		"records", len(snapshot.Records),
		"completeness", snapshot.Quality.CompletenessPct,
		"drift", changes.Drift,
	)

	return Result{
		Key:      key,
		Period:   req.Period,
		Meta:     meta,
		Snapshot: snapshot,
		Changes:  changes,
	}, nil
}

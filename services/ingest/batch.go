package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"tradestat-ingestor/lib/scrapers/tradestat"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BatchRequest fans one report out over several periods.
type BatchRequest struct {
	Feature   string
	Direction tradestat.Direction
	Entity    string
	Periods   []string
	Month     string
	// zero selects a single worker
	Workers int
}

// IngestBatch ingests every period of a batch request concurrently.
// A failed period does not stop the others; the results that did
// succeed are returned alongside the joined errors, ordered by period.
func (s Service) IngestBatch(ctx context.Context, req BatchRequest) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "IngestBatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("feature", req.Feature),
		attribute.String("direction", string(req.Direction)),
		attribute.String("entity", req.Entity),
		attribute.Int("periods", len(req.Periods)),
	)

	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	var mu sync.Mutex
	var results []Result
	var errlist []error

	for _, period := range req.Periods {
		group.Submit(func() {
			result, err := s.Ingest(ctx, req.Feature, tradestat.Request{
				Direction: req.Direction,
				Entity:    req.Entity,
				Period:    period,
				Month:     req.Month,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errlist = append(errlist, fmt.Errorf("period %s: %w", period, err))
				return
			}
			results = append(results, result)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		mu.Lock()
		errlist = append(errlist, err)
		mu.Unlock()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Period < results[j].Period
	})

	err := errors.Join(errlist...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch finished with failures")
	}
	return results, err
}

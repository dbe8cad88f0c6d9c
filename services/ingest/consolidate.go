package ingest

import (
	"fmt"
	"sort"
	"time"

	"tradestat-ingestor/lib/versionstore"
)

// ConsolidatedPeriod is one period's data inside a consolidated export.
type ConsolidatedPeriod struct {
	Period string             `json:"period"`
	Entry  versionstore.Entry `json:"entry"`
}

// Consolidated bundles every recorded period of one report slice into
// a single document, newest period first.
type Consolidated struct {
	Feature     string               `json:"feature"`
	Direction   string               `json:"direction"`
	Entity      string               `json:"entity"`
	GeneratedAt time.Time            `json:"generated_at"`
	PeriodCount int                  `json:"period_count"`
	Periods     []ConsolidatedPeriod `json:"periods"`
}

// Consolidate builds the consolidated export for a report slice from
// its recorded history.
func (s Service) Consolidate(key versionstore.Key) (Consolidated, error) {
	history, err := s.versions.History(key)
	if err != nil {
		return Consolidated{}, err
	}
	if len(history) == 0 {
		return Consolidated{}, fmt.Errorf("no recorded history for %s", key)
	}

	periods := make([]ConsolidatedPeriod, 0, len(history))
	for period, entry := range history {
		periods = append(periods, ConsolidatedPeriod{Period: period, Entry: entry})
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period > periods[j].Period
	})

	return Consolidated{
		Feature:     key.Feature,
		Direction:   key.Direction,
		Entity:      key.Entity,
		GeneratedAt: time.Now(),
		PeriodCount: len(periods),
		Periods:     periods,
	}, nil
}

// Package delta computes structured diffs between two extraction
// snapshots of the same report. Both inputs are in-memory; the
// computation is pure and never fails on data-shape problems.
package delta

import (
	"math"
	"slices"
	"tradestat-ingestor/lib/htmltable"
)

type ChangeType string

const (
	// the first recorded snapshot for a key, nothing to compare against
	InitialData ChangeType = "INITIAL_DATA"
	DataUpdate  ChangeType = "DATA_UPDATE"
)

// Drift is a coarse severity grade of how much of the record set
// changed, by percentage of entities affected.
type Drift string

const (
	DriftBaseline    Drift = "BASELINE"
	DriftNone        Drift = "NO_CHANGE"
	DriftMinimal     Drift = "MINIMAL"
	DriftModerate    Drift = "MODERATE"
	DriftSignificant Drift = "SIGNIFICANT"
	DriftCritical    Drift = "CRITICAL"
)

// Thresholds are the percent-change cutoffs of the drift ladder. A
// percent change below Minimal grades MINIMAL, below Moderate grades
// MODERATE, and so on; anything at or above Significant is CRITICAL.
type Thresholds struct {
	Minimal     float64
	Moderate    float64
	Significant float64
}

var DefaultThresholds = Thresholds{Minimal: 5, Moderate: 15, Significant: 30}

func (t Thresholds) Classify(percentChange float64) Drift {
	switch {
	case percentChange == 0:
		return DriftNone
	case percentChange < t.Minimal:
		return DriftMinimal
	case percentChange < t.Moderate:
		return DriftModerate
	case percentChange < t.Significant:
		return DriftSignificant
	default:
		return DriftCritical
	}
}

// FieldChange records one metric's movement between two snapshots.
// Difference and PercentChange are nil when either side is missing;
// PercentChange is additionally nil when the previous value is zero.
type FieldChange struct {
	Previous      *float64 `json:"previous"`
	Current       *float64 `json:"current"`
	Difference    *float64 `json:"difference"`
	PercentChange *float64 `json:"percent_change"`
}

// Diff is the structured comparison of two snapshots.
type Diff struct {
	ChangeType    ChangeType                        `json:"change_type"`
	HasChanges    bool                              `json:"has_changes"`
	Added         []string                          `json:"added"`
	Removed       []string                          `json:"removed"`
	Modified      []string                          `json:"modified"`
	FieldChanges  map[string]map[string]FieldChange `json:"field_changes,omitempty"`
	TotalChanges  int                               `json:"total_changes"`
	PercentChange float64                           `json:"percent_change"`
	Drift         Drift                             `json:"drift"`
}

// Detect compares a freshly extracted snapshot against the previously
// recorded one. A nil previous marks the baseline case: it must stay
// distinguishable from a comparison that found zero changes.
func Detect(current htmltable.Snapshot, previous *htmltable.Snapshot) Diff {
	return DetectWithThresholds(current, previous, DefaultThresholds)
}

func DetectWithThresholds(current htmltable.Snapshot, previous *htmltable.Snapshot, t Thresholds) Diff {
	if previous == nil {
		return Diff{
			ChangeType:    InitialData,
			HasChanges:    true,
			PercentChange: 100,
			Drift:         DriftBaseline,
		}
	}

	curr := current.ByIdentity()
	prev := previous.ByIdentity()

	var added, removed, modified []string
	fieldChanges := map[string]map[string]FieldChange{}

	for identity := range curr {
		if _, ok := prev[identity]; !ok {
			added = append(added, identity)
		}
	}
	for identity := range prev {
		if _, ok := curr[identity]; !ok {
			removed = append(removed, identity)
		}
	}
	for identity, currRec := range curr {
		prevRec, ok := prev[identity]
		if !ok {
			continue
		}
		changes := compareRecords(currRec, prevRec)
		if len(changes) > 0 {
			modified = append(modified, identity)
			fieldChanges[identity] = changes
		}
	}

	slices.Sort(added)
	slices.Sort(removed)
	slices.Sort(modified)
	if len(fieldChanges) == 0 {
		fieldChanges = nil
	}

	totalChanges := len(added) + len(removed) + len(modified)
	percentChange := 0.0
	if denom := max(len(curr), len(prev)); denom > 0 {
		percentChange = float64(totalChanges) / float64(denom) * 100
	}

	return Diff{
		ChangeType:    DataUpdate,
		HasChanges:    totalChanges > 0,
		Added:         added,
		Removed:       removed,
		Modified:      modified,
		FieldChanges:  fieldChanges,
		TotalChanges:  totalChanges,
		PercentChange: percentChange,
		Drift:         t.Classify(percentChange),
	}
}

// compareRecords diffs every metric present on either side. Exact
// float equality is intentional: the source publishes fixed-precision
// figures, so any difference is a genuine revision.
func compareRecords(current, previous htmltable.Record) map[string]FieldChange {
	fields := make([]string, 0, len(current.Values))
	for name := range current.Values {
		fields = append(fields, name)
	}
	for name := range previous.Values {
		if _, ok := current.Values[name]; !ok {
			fields = append(fields, name)
		}
	}
	slices.Sort(fields)

	changes := map[string]FieldChange{}
	for _, name := range fields {
		currVal := current.Values[name]
		prevVal := previous.Values[name]
		if equalValue(currVal, prevVal) {
			continue
		}
		changes[name] = FieldChange{
			Previous:      prevVal,
			Current:       currVal,
			Difference:    difference(prevVal, currVal),
			PercentChange: percentChange(prevVal, currVal),
		}
	}
	return changes
}

func equalValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func difference(previous, current *float64) *float64 {
	if previous == nil || current == nil {
		return nil
	}
	d := *current - *previous
	return &d
}

func percentChange(previous, current *float64) *float64 {
	if previous == nil || current == nil || *previous == 0 {
		return nil
	}
	pct := (*current - *previous) / math.Abs(*previous) * 100
	return &pct
}

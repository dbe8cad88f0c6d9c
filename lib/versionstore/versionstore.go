// Package versionstore persists the per-entity version history: an
// append-only, keyed-by-period log of snapshots and the diffs computed
// against the prior scrape of each period. One JSON file exists per
// (feature, direction, entity) key.
package versionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"tradestat-ingestor/lib/delta"
	"tradestat-ingestor/lib/htmltable"
)

// Key identifies one version history file.
type Key struct {
	Feature   string
	Direction string
	Entity    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Feature, k.Direction, k.Entity)
}

var filenameSanitizer = strings.NewReplacer("/", "-", "\\", "-", " ", "_")

func (k Key) filename() string {
	return filenameSanitizer.Replace(
		fmt.Sprintf("%s_%s_%s_history.json", k.Feature, k.Direction, k.Entity),
	)
}

// Entry is one recorded period within a history file.
type Entry struct {
	Timestamp time.Time          `json:"timestamp"`
	Checksum  string             `json:"checksum"`
	Snapshot  htmltable.Snapshot `json:"snapshot"`
	Changes   delta.Diff         `json:"changes"`
	Quality   htmltable.Quality  `json:"data_quality"`
}

type Store struct {
	dir string
	now func() time.Time
	// serializes the load-modify-rename of SaveVersion; concurrent
	// batch workers write to the same history file
	mu *sync.Mutex
}

// NewStore roots the store's history files at <dataDir>/.versions.
func NewStore(dataDir string) (Store, error) {
	dir := filepath.Join(dataDir, ".versions")
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return Store{}, fmt.Errorf("create versions dir: %w", err)
	}
	return Store{dir: dir, now: time.Now, mu: &sync.Mutex{}}, nil
}

func (s Store) path(key Key) string {
	return filepath.Join(s.dir, key.filename())
}

func (s Store) load(key Key) (map[string]Entry, error) {
	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", key, err)
	}
	history := map[string]Entry{}
	err = json.Unmarshal(raw, &history)
	if err != nil {
		return nil, fmt.Errorf("parse history %s: %w", key, err)
	}
	return history, nil
}

// Previous returns the snapshot recorded for the given period on an
// earlier run, supplying the "previous" side of a diff. The boolean is
// false when no run has recorded this period yet.
func (s Store) Previous(key Key, period string) (*htmltable.Snapshot, bool, error) {
	history, err := s.load(key)
	if err != nil {
		return nil, false, err
	}
	entry, ok := history[period]
	if !ok {
		return nil, false, nil
	}
	return &entry.Snapshot, true, nil
}

// SaveVersion records a snapshot and its diff under the given period.
// Re-running an extraction for an already-recorded period replaces
// that period's entry only; prior periods are never touched. The file
// is written via temp-file-then-rename so a crash mid-write cannot
// leave the history unparseable.
func (s Store) SaveVersion(key Key, period string, snapshot htmltable.Snapshot, changes delta.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(key)
	if err != nil {
		return err
	}

	history[period] = Entry{
		Timestamp: s.now(),
		Checksum:  snapshot.Checksum,
		Snapshot:  snapshot,
		Changes:   changes,
		Quality:   snapshot.Quality,
	}

	encoded, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key.filename()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history %s: %w", key, err)
	}
	_, err = tmp.Write(encoded)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp history %s: %w", key, err)
	}
	err = os.Rename(tmp.Name(), s.path(key))
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace history %s: %w", key, err)
	}
	return nil
}

// History returns every recorded entry keyed by period.
func (s Store) History(key Key) (map[string]Entry, error) {
	return s.load(key)
}

// PeriodSummary is one changelog line: what a period looked like when
// it was last recorded.
type PeriodSummary struct {
	Period    string            `json:"period"`
	Timestamp time.Time         `json:"timestamp"`
	Checksum  string            `json:"checksum"`
	Quality   htmltable.Quality `json:"data_quality"`
	Changes   delta.Diff        `json:"changes"`
}

// Changelog returns every recorded period in ascending order. Read
// only; an empty history yields an empty changelog.
func (s Store) Changelog(key Key) ([]PeriodSummary, error) {
	history, err := s.load(key)
	if err != nil {
		return nil, err
	}

	periods := make([]string, 0, len(history))
	for period := range history {
		periods = append(periods, period)
	}
	slices.Sort(periods)

	out := make([]PeriodSummary, len(periods))
	for i, period := range periods {
		entry := history[period]
		out[i] = PeriodSummary{
			Period:    period,
			Timestamp: entry.Timestamp,
			Checksum:  entry.Checksum,
			Quality:   entry.Quality,
			Changes:   entry.Changes,
		}
	}
	return out, nil
}

// Comparison pairs a recorded period with the nearest earlier one.
type Comparison struct {
	Period         string `json:"period"`
	PreviousPeriod string `json:"previous_period,omitempty"`
	Current        Entry  `json:"current"`
	Previous       *Entry `json:"previous,omitempty"`
}

// Compare returns the entry for a period alongside the nearest earlier
// recorded period, when one exists.
func (s Store) Compare(key Key, period string) (Comparison, error) {
	history, err := s.load(key)
	if err != nil {
		return Comparison{}, err
	}
	current, ok := history[period]
	if !ok {
		return Comparison{}, fmt.Errorf("no entry for period %q in history %s", period, key)
	}

	previousPeriod := ""
	for p := range history {
		if p >= period {
			continue
		}
		if p > previousPeriod {
			previousPeriod = p
		}
	}
	if previousPeriod == "" {
		return Comparison{Period: period, Current: current}, nil
	}

	previous := history[previousPeriod]
	return Comparison{
		Period:         period,
		PreviousPeriod: previousPeriod,
		Current:        current,
		Previous:       &previous,
	}, nil
}

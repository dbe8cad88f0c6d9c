// Package rawstore archives the raw HTML of every fetched report page
// before parsing, so extraction bugs can be replayed against the
// original markup without re-hitting the portal.
package rawstore

import (
	"context"
	"database/sql"
	"time"
	"tradestat-ingestor/lib/rawstore/db"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Open opens (and initializes, if needed) an archive database at the
// given path. ":memory:" works for tests.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	// a second pool connection would see a fresh, schemaless database
	// when path is ":memory:"
	database.SetMaxOpenConns(1)
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

type Page struct {
	Feature   string
	Direction string
	Entity    string
	Period    string
	FetchedAt time.Time
	Html      string
}

// Save records a fetched page, replacing any earlier fetch of the same
// (feature, direction, entity, period).
func (s Store) Save(ctx context.Context, page Page) error {
	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	return s.qry.UpsertRawPage(ctx, db.UpsertRawPageParams{
		Feature:   page.Feature,
		Direction: page.Direction,
		Entity:    page.Entity,
		Period:    page.Period,
		FetchedAt: fetchedAt.Unix(),
		Html:      page.Html,
	})
}

// Get returns the archived page for a key, or sql.ErrNoRows when the
// page was never fetched.
func (s Store) Get(ctx context.Context, feature, direction, entity, period string) (Page, error) {
	row, err := s.qry.GetRawPage(ctx, db.GetRawPageParams{
		Feature:   feature,
		Direction: direction,
		Entity:    entity,
		Period:    period,
	})
	if err != nil {
		return Page{}, err
	}
	return Page{
		Feature:   row.Feature,
		Direction: row.Direction,
		Entity:    row.Entity,
		Period:    row.Period,
		FetchedAt: time.Unix(row.FetchedAt, 0),
		Html:      row.Html,
	}, nil
}

// Periods lists the archived periods for an entity in ascending order.
func (s Store) Periods(ctx context.Context, feature, direction, entity string) ([]string, error) {
	return s.qry.ListRawPagePeriods(ctx, db.ListRawPagePeriodsParams{
		Feature:   feature,
		Direction: direction,
		Entity:    entity,
	})
}

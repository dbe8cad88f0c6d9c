// Package htmltable converts server-rendered HTML report tables into
// typed record sets. It is built for adversarial third-party markup:
// a missing table, a garbled row or an unparseable cell degrades the
// result instead of failing it.
package htmltable

import (
	"fmt"
	"log/slog"
	"strings"
	"tradestat-ingestor/lib/htmlutil"
	"tradestat-ingestor/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Column binds a metric name to the cell index it is read from.
type Column struct {
	Name string
	Cell int
}

// Shape describes where a report's data table lives and how its rows
// are laid out. One Shape exists per report type; the extraction logic
// itself is shared across all of them.
type Shape struct {
	// optional CSS selector for the data table, e.g. "table#example1".
	// when empty (or when it matches nothing) the first table containing
	// a row with at least MinColumns cells is used instead.
	Selector string

	// minimum cell count for a row to be considered a data row
	MinColumns int

	// cell carrying the source-reported serial number
	SerialCell int
	// cell carrying the entity key (country name, HS code, region name)
	IdentityCell int

	// descriptive text cells attached to each record, e.g. the
	// commodity description next to its HS code
	Labels []Column

	// numeric metric cells, in report column order
	Columns []Column

	// normalized substrings (lowercase, no whitespace) that mark a row
	// as a grand-total footer rather than a data row
	TotalMarkers []string

	// the metric counted for completeness, normally the current
	// period's value. defaults to the first entry of Columns.
	CompletenessField string

	// zero value selects DefaultQualityThresholds
	Quality QualityThresholds
}

func (s Shape) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("shape has no numeric columns")
	}
	if s.MinColumns <= 0 {
		return fmt.Errorf("shape has a non-positive minimum column count")
	}
	return nil
}

func (s Shape) completenessField() string {
	if s.CompletenessField != "" {
		return s.CompletenessField
	}
	return s.Columns[0].Name
}

// Record is one entity's row of metric values.
type Record struct {
	Identity string              `json:"identity"`
	SerialNo int                 `json:"serial_no"`
	Labels   map[string]string   `json:"labels,omitempty"`
	Values   map[string]*float64 `json:"values"`
}

// Value returns the named metric, or nil when the source rendered it
// as missing.
func (r Record) Value(field string) *float64 {
	return r.Values[field]
}

// Snapshot is the full record set extracted from one document.
type Snapshot struct {
	Records  []Record `json:"records"`
	Total    *Record  `json:"total,omitempty"`
	Checksum string   `json:"checksum"`
	Quality  Quality  `json:"quality"`
}

// ByIdentity keys the snapshot's records by identity. When the source
// repeats an identity the last occurrence wins; that is a data-quality
// anomaly, not an error.
func (s Snapshot) ByIdentity() map[string]Record {
	out := make(map[string]Record, len(s.Records))
	for _, r := range s.Records {
		out[r.Identity] = r
	}
	return out
}

// Extract converts one HTML document into a snapshot using the given
// shape. Absence of a qualifying table is an expected outcome and
// yields an empty snapshot with an INCOMPLETE quality status; an error
// is returned only for unusable inputs (a broken shape, unreadable
// markup).
func Extract(html string, shape Shape) (Snapshot, error) {
	if err := shape.validate(); err != nil {
		return Snapshot{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Snapshot{}, err
	}

	table := locateTable(doc, shape)
	if table == nil {
		slog.Debug("no qualifying data table found")
		return finalize(nil, nil, shape), nil
	}

	var records []Record
	var total *Record

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		texts := cellTexts(row)
		if len(texts) == 0 {
			return
		}

		if textutil.MatchName(strings.Join(texts, " "), shape.TotalMarkers) {
			// first parseable total row wins, later ones are ignored
			if total == nil {
				if tr := totalRecord(texts, shape); tr != nil {
					total = tr
				}
			}
			return
		}

		if len(texts) < shape.MinColumns {
			return
		}

		rec, ok := dataRecord(texts, shape, len(records)+1)
		if !ok {
			slog.Debug("skipping non-data row", "leading_cell", texts[0])
			return
		}
		records = append(records, rec)
	})

	return finalize(records, total, shape), nil
}

func finalize(records []Record, total *Record, shape Shape) Snapshot {
	qt := shape.Quality
	if qt == (QualityThresholds{}) {
		qt = DefaultQualityThresholds
	}
	return Snapshot{
		Records:  records,
		Total:    total,
		Checksum: ChecksumRecords(records),
		Quality:  measureQuality(records, shape.completenessField(), qt),
	}
}

// locateTable prefers the shape's selector and falls back to the first
// table structurally compatible with the shape.
func locateTable(doc *goquery.Document, shape Shape) *goquery.Selection {
	if shape.Selector != "" {
		sel := doc.Find(shape.Selector).First()
		if sel.Length() > 0 {
			return sel
		}
	}

	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		qualifies := false
		table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if row.Find("td").Length() >= shape.MinColumns {
				qualifies = true
				return false
			}
			return true
		})
		if qualifies {
			found = table
			return false
		}
		return true
	})
	return found
}

func cellTexts(row *goquery.Selection) []string {
	var texts []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		for _, n := range cell.Nodes {
			texts = append(texts, htmlutil.CleanText(htmlutil.GetText(n)))
		}
	})
	return texts
}

func cellAt(texts []string, i int) string {
	if i < 0 || i >= len(texts) {
		return ""
	}
	return texts[i]
}

// dataRecord converts one row into a record. A row is rejected as a
// header when its leading cell is non-numeric and none of its value
// cells parse either; a row with a blank serial but real numbers is
// kept and receives ordinal as its serial number.
func dataRecord(texts []string, shape Shape, ordinal int) (Record, bool) {
	values := make(map[string]*float64, len(shape.Columns))
	anyValue := false
	for _, col := range shape.Columns {
		v := ParseNumber(cellAt(texts, col.Cell))
		values[col.Name] = v
		if v != nil {
			anyValue = true
		}
	}

	serial, serialOK := ParseSerial(cellAt(texts, shape.SerialCell))
	if !serialOK {
		if !anyValue {
			return Record{}, false
		}
		serial = ordinal
	}

	identity := cellAt(texts, shape.IdentityCell)
	if identity == "" {
		return Record{}, false
	}

	var labels map[string]string
	if len(shape.Labels) > 0 {
		labels = make(map[string]string, len(shape.Labels))
		for _, col := range shape.Labels {
			labels[col.Name] = cellAt(texts, col.Cell)
		}
	}

	return Record{
		Identity: identity,
		SerialNo: serial,
		Labels:   labels,
		Values:   values,
	}, true
}

// totalRecord maps the numeric cells of a footer row onto the shape's
// metric names positionally. Footer rows routinely merge their label
// cells with colspan, so column indexes cannot be trusted; the numbers
// that survive cleanup are taken in order.
func totalRecord(texts []string, shape Shape) *Record {
	var numbers []*float64
	for _, t := range texts {
		if v := ParseNumber(t); v != nil {
			numbers = append(numbers, v)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	values := make(map[string]*float64, len(shape.Columns))
	for i, col := range shape.Columns {
		if i < len(numbers) {
			values[col.Name] = numbers[i]
		} else {
			values[col.Name] = nil
		}
	}
	return &Record{
		Identity: "total",
		Values:   values,
	}
}

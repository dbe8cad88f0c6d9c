package tradestat

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta is the contextual header the portal prints above each
// result table. None of the fields are guaranteed to be present; pages
// for some report types omit the commodity line entirely.
type PageMeta struct {
	HSCode      string `json:"hs_code,omitempty"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
	ReportDated string `json:"report_dated,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

var (
	commodityLineRe = regexp.MustCompile(`Commodity:\s*(\d+)\s+(.*?)\s+Unit:\s*(\S+)`)
	reportDatedRe   = regexp.MustCompile(`Report Dated:\s*([0-9/\-]+)`)
	lastUpdatedRe   = regexp.MustCompile(`[Ll]ast data updated on\s*:?\s*([0-9/\-]+)`)
)

// ParsePageMeta pulls the header metadata out of a result page. It
// never fails; pages that carry no recognizable header yield the zero
// value.
func ParsePageMeta(doc *goquery.Document) PageMeta {
	var meta PageMeta
	text := doc.Find("body").Text()

	if m := commodityLineRe.FindStringSubmatch(text); m != nil {
		meta.HSCode = m[1]
		meta.Description = strings.TrimSpace(m[2])
		meta.Unit = m[3]
	}
	if m := reportDatedRe.FindStringSubmatch(text); m != nil {
		meta.ReportDated = m[1]
	}
	if m := lastUpdatedRe.FindStringSubmatch(text); m != nil {
		meta.LastUpdated = m[1]
	}
	return meta
}

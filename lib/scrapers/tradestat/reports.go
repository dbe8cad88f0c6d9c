package tradestat

import (
	"strconv"
	"strings"

	"tradestat-ingestor/lib/htmltable"
)

type Direction string

const (
	Export Direction = "export"
	Import Direction = "import"
)

// Request selects one report slice: which entity (HS code, region
// code, commodity code...) and which reporting period. Month is only
// meaningful for the monthly (meidb) report family.
type Request struct {
	Direction Direction
	Entity    string
	Period    string
	Month     string
}

// Report is one entry of the report registry: endpoint paths, the form
// payload builder and the table shape for one report type. The
// portal's ~15 report variants differ only in these three things; all
// scraping and extraction logic is shared.
type Report struct {
	Name       string
	ExportPath string
	// empty when the export endpoint serves both directions and the
	// direction is selected by a form flag instead
	ImportPath string
	Shape      htmltable.Shape
	Form       func(token string, req Request) map[string]string
}

func (r Report) postPath(d Direction) string {
	if d == Import && r.ImportPath != "" {
		return r.ImportPath
	}
	return r.ExportPath
}

// annual value/share/growth shape shared by the commodity family:
// sno | hs code | description | prev value | prev share | curr value | curr share | growth
func commodityShape() htmltable.Shape {
	return htmltable.Shape{
		MinColumns:   7,
		SerialCell:   0,
		IdentityCell: 1,
		Labels: []htmltable.Column{
			{Name: "description", Cell: 2},
		},
		Columns: []htmltable.Column{
			{Name: "prev_year_value", Cell: 3},
			{Name: "prev_year_share_pct", Cell: 4},
			{Name: "curr_year_value", Cell: 5},
			{Name: "curr_year_share_pct", Cell: 6},
			{Name: "growth_pct", Cell: 7},
		},
		TotalMarkers:      []string{"total"},
		CompletenessField: "curr_year_value",
	}
}

// Registry holds every supported report keyed by feature name.
var Registry = map[string]Report{
	"commodity_wise": {
		Name:       "commodity_wise",
		ExportPath: "/eidb/commodity_wise_export",
		ImportPath: "/eidb/commodity_wise_import",
		Shape:      commodityShape(),
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":           token,
					"Eidb_YearCwi":     req.Period,
					"commodityType":    "specific",
					"Eidb_ComLevelCwi": hsLevel(req.Entity),
					"Eidb_hscodeCwi":   req.Entity,
					"Eidb_ReportCwi":   reportUSD,
				}
			}
			return map[string]string{
				"_token":          token,
				"EidbYearCwe":     req.Period,
				"comType":         "specific",
				"commodityType":   "specific",
				"EidbComLevelCwe": hsLevel(req.Entity),
				"Eidb_hscodeCwe":  req.Entity,
				"Eidb_ReportCwe":  reportUSD,
			}
		},
	},

	// country-by-country breakdown for one HS code. the portal serves
	// both directions from the export endpoint; the report flag is what
	// selects import ("1") versus export ("2"). quirk of the portal's
	// form, re-verified against live behavior rather than the path name.
	"commodity_wise_all_countries": {
		Name:       "commodity_wise_all_countries",
		ExportPath: "/eidb/commodity_wise_all_countries_export",
		Shape: htmltable.Shape{
			Selector:     "table#example1",
			MinColumns:   8,
			SerialCell:   0,
			IdentityCell: 1,
			Columns: []htmltable.Column{
				{Name: "usd_prev_year", Cell: 2},
				{Name: "usd_curr_year", Cell: 3},
				{Name: "usd_growth_pct", Cell: 4},
				{Name: "qty_prev_year", Cell: 5},
				{Name: "qty_curr_year", Cell: 6},
				{Name: "qty_growth_pct", Cell: 7},
			},
			TotalMarkers:      []string{"total"},
			CompletenessField: "usd_curr_year",
		},
		Form: func(token string, req Request) map[string]string {
			report := "2" // export
			if req.Direction == Import {
				report = "1"
			}
			return map[string]string{
				"_token":           token,
				"Eidbhscode_cmace": req.Entity,
				"EidbYear_cmace":   req.Period,
				"EidbReport_cmace": report,
			}
		},
	},

	"region_wise": {
		Name:       "region_wise",
		ExportPath: "/eidb/region_wise_export",
		ImportPath: "/eidb/region_wise_import",
		Shape: htmltable.Shape{
			MinColumns:   6,
			SerialCell:   0,
			IdentityCell: 0,
			Columns: []htmltable.Column{
				{Name: "prev_year_value", Cell: 1},
				{Name: "prev_year_share_pct", Cell: 2},
				{Name: "curr_year_value", Cell: 3},
				{Name: "curr_year_share_pct", Cell: 4},
				{Name: "growth_pct", Cell: 5},
			},
			TotalMarkers:      []string{"total"},
			CompletenessField: "curr_year_value",
		},
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":               token,
					"eidbrwimpddYear":      req.Period,
					"eidbrwimp_regid":      req.Entity,
					"eidbrwimpddReportVal": reportUSD,
				}
			}
			return map[string]string{
				"_token":          token,
				"eidbYearRwe":     req.Period,
				"eidbrwexp_regid": req.Entity,
				"eidbReportRwe":   reportUSD,
			}
		},
	},

	"region_wise_all_commodities": {
		Name:       "region_wise_all_commodities",
		ExportPath: "/eidb/region_wise_all_commodities_export",
		ImportPath: "/eidb/region_wise_all_commodities_import",
		Shape:      commodityShape(),
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":           token,
					"eidbRwacmiYear":   req.Period,
					"eidbRwacmireg":    req.Entity,
					"eidbRwacmiLevel":  "2",
					"eidbRwacmiReport": reportUSD,
				}
			}
			return map[string]string{
				"_token":           token,
				"eidbRwacmeYear":   req.Period,
				"eidbRwacmereg":    req.Entity,
				"eidbRwacmeLevel":  "2",
				"eidbRwacmeReport": reportUSD,
			}
		},
	},

	"chapter_wise_all_commodities": {
		Name:       "chapter_wise_all_commodities",
		ExportPath: "/eidb/chapter_wise_all_commodities_export",
		ImportPath: "/eidb/chapter_wise_all_commodities_import",
		Shape:      commodityShape(),
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":                  token,
					"level":                   "2",
					"eidbcwacoimpYear":        req.Period,
					"eidbcwacoimpddReportVal": reportUSD,
					"eidbcwacoimpddChapter":   req.Entity,
				}
			}
			return map[string]string{
				"_token":         token,
				"level":          "2",
				"eidbYearChwe":   req.Period,
				"eidbReportChwe": reportUSD,
				"eidbChapterEx":  req.Entity,
			}
		},
	},

	"commodity_x_country_timeseries": {
		Name:       "commodity_x_country_timeseries",
		ExportPath: "/eidb/commodityx_countries_wise_export",
		ImportPath: "/eidb/commodityx_countries_wise_import",
		Shape: htmltable.Shape{
			MinColumns:   4,
			SerialCell:   0,
			IdentityCell: 1,
			Columns: []htmltable.Column{
				{Name: "value", Cell: 2},
				{Name: "growth_pct", Cell: 3},
			},
			TotalMarkers:      []string{"total"},
			CompletenessField: "value",
		},
		Form: func(token string, req Request) map[string]string {
			// the entity for this report is "<hscode>:<countrycode>"
			hsCode, country := splitEntity(req.Entity)
			if req.Direction == Import {
				return map[string]string{
					"_token":      token,
					"searchTerm":  hsCode,
					"ContEidbyi":  req.Period,
					"ContEidbi":   country,
					"ReportEidbi": reportUSD,
				}
			}
			return map[string]string{
				"_token":      token,
				"searchTerm":  hsCode,
				"ContEidbey":  req.Period,
				"ContEidbe":   country,
				"ReportEidbe": reportUSD,
			}
		},
	},

	// the month/year/level/value selectors carry a direction prefix
	// ("dd" export, "imdd" import) but comlev/comval do not.
	"meidb_commodity_wise": {
		Name:       "meidb_commodity_wise",
		ExportPath: "/meidb/commoditywise_export",
		ImportPath: "/meidb/commoditywise_import",
		Shape:      commodityShape(),
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":             token,
					"imddMonth":          req.Month,
					"imddYear":           req.Period,
					"comlev":             "specific",
					"imddCommodityLevel": hsLevel(req.Entity),
					"comval":             req.Entity,
					"imddReportVal":      meidbUSD,
					"imddReportYear":     fiscalYearType,
				}
			}
			return map[string]string{
				"_token":           token,
				"ddMonth":          req.Month,
				"ddYear":           req.Period,
				"comlev":           "specific",
				"ddCommodityLevel": hsLevel(req.Entity),
				"comval":           req.Entity,
				"ddReportVal":      meidbUSD,
				"ddReportYear":     fiscalYearType,
			}
		},
	},

	// monthly country breakdown for one HS code: the month's figures
	// alongside the financial-year cumulative.
	"meidb_commodity_wise_all_countries": {
		Name:       "meidb_commodity_wise_all_countries",
		ExportPath: "/meidb/commodity_wise_all_countries_export",
		ImportPath: "/meidb/commodity_wise_all_countries_import",
		Shape: htmltable.Shape{
			MinColumns:   8,
			SerialCell:   0,
			IdentityCell: 1,
			Columns: []htmltable.Column{
				{Name: "month_prev_year", Cell: 2},
				{Name: "month_curr_year", Cell: 3},
				{Name: "month_yoy_growth_pct", Cell: 4},
				{Name: "cumulative_prev_year", Cell: 5},
				{Name: "cumulative_curr_year", Cell: 6},
				{Name: "cumulative_yoy_growth_pct", Cell: 7},
			},
			TotalMarkers:      []string{"total"},
			CompletenessField: "month_curr_year",
		},
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":           token,
					"cwacimHSCODE":     req.Entity,
					"cwacimMonth":      req.Month,
					"cwacimYear":       req.Period,
					"cwacimReportVal":  meidbUSD,
					"cwacimReportYear": fiscalYearType,
				}
			}
			return map[string]string{
				"_token":           token,
				"cwacexHSCODE":     req.Entity,
				"cwacexMonth":      req.Month,
				"cwacexYear":       req.Period,
				"cwacexReportVal":  meidbUSD,
				"cwacexReportYear": fiscalYearType,
			}
		},
	},

	"meidb_principal_commodity": {
		Name:       "meidb_principal_commodity",
		ExportPath: "/meidb/principal_commodity_wise_all_HSCode_export",
		ImportPath: "/meidb/principal_commodity_wise_all_HSCode_import",
		Shape:      commodityShape(),
		Form: func(token string, req Request) map[string]string {
			if req.Direction == Import {
				return map[string]string{
					"_token":          token,
					"impddMonth":      req.Month,
					"impddYear":       req.Period,
					"impbrcitmdata":   req.Entity,
					"impddReportVal":  meidbUSD,
					"impddReportYear": fiscalYearType,
				}
			}
			return map[string]string{
				"_token":        token,
				"pddMonth":      req.Month,
				"pddYear":       req.Period,
				"pbrcitmdata":   req.Entity,
				"pddReportVal":  meidbUSD,
				"pddReportYear": fiscalYearType,
			}
		},
	},
}

// Lookup returns the registry entry for a feature name.
func Lookup(name string) (Report, bool) {
	r, ok := Registry[name]
	return r, ok
}

// value/report codes as the portal's forms define them. the eidb and
// meidb families number their value types differently.
const (
	reportUSD      = "2" // eidb: US$ Million
	meidbUSD       = "1" // meidb: US$ Million
	fiscalYearType = "1" // financial year (Apr-Mar)
)

func hsLevel(hsCode string) string {
	switch len(hsCode) {
	case 2, 4, 6, 8:
		return strconv.Itoa(len(hsCode))
	default:
		return "8"
	}
}

func splitEntity(entity string) (string, string) {
	hsCode, country, ok := strings.Cut(entity, ":")
	if !ok {
		return entity, ""
	}
	return hsCode, country
}

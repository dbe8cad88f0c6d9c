package htmltable

import (
	"strconv"
	"strings"
	"tradestat-ingestor/lib/htmlutil"
)

// placeholders the portal renders for missing data. these parse to
// nil, never to zero.
var nullMarkers = map[string]bool{
	"":    true,
	"-":   true,
	"--":  true,
	"NA":  true,
	"N/A": true,
}

var numericCleaner = strings.NewReplacer(
	",", "",
	" ", "",
	"%", "",
	"$", "",
	"₹", "",
)

// ParseNumber parses a table cell into an optional float. Explicit
// missing-value markers and anything that still fails conversion after
// cleanup yield nil; data quality is tracked, not enforced.
func ParseNumber(text string) *float64 {
	text = htmlutil.CleanText(text)
	if nullMarkers[text] {
		return nil
	}
	cleaned := numericCleaner.Replace(text)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseSerial parses a source-reported serial number. The caller falls
// back to a positional ordinal when this fails.
func ParseSerial(text string) (int, bool) {
	text = numericCleaner.Replace(htmlutil.CleanText(text))
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

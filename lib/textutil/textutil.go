package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized form of name contains any of
// the given markers. Markers are expected to already be normalized
// (lowercase, no whitespace).
func MatchName(name string, markers []string) bool {
	name = NormalizeName(name)
	for _, m := range markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

package platforms

import (
	"strings"

	"github.com/jonathan/job-matcher/internal/location"
)

// titleMatches reports whether every word of query appears in title.
func titleMatches(title, query string) bool {
	title = strings.ToLower(title)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}

// locationMatches reports whether loc falls in city's greater area. An empty
// city matches everything; remote postings match every city.
func locationMatches(loc, city string) bool {
	if strings.TrimSpace(city) == "" {
		return true
	}
	loc = strings.ToLower(loc)
	if strings.Contains(loc, "remote") {
		return true
	}
	for _, area := range location.ExpandedAreas(city) {
		if strings.Contains(loc, strings.ToLower(area)) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Package query builds backend-neutral job store filters and executes them
// with dedup-on-read.
package query

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jonathan/job-matcher/internal/location"
)

// Store fields a filter can match on.
const (
	FieldTitle    = "title"
	FieldLocation = "location"
)

// ErrDegenerateFilter is returned when a filter would match on nothing but
// the active flag, i.e. scan the whole store.
var ErrDegenerateFilter = errors.New("filter has no title or location predicate")

// Condition is a case-insensitive regular expression match on one field.
// Pattern is already escaped; backends use it verbatim.
type Condition struct {
	Field   string
	Pattern string
}

// Filter is the backend-neutral form of a job store query. AnyOf is a
// disjunction, AllOf a conjunction, and both are ANDed together.
type Filter struct {
	AnyOf           []Condition
	AllOf           []Condition
	ExcludeInactive bool
}

// IsEmpty reports whether the filter carries no field predicates.
func (f Filter) IsEmpty() bool {
	return len(f.AnyOf) == 0 && len(f.AllOf) == 0
}

// Build creates the filter for a set of title keywords in a city. Each
// keyword becomes one escaped alternative. A known greater-area city becomes
// a single alternation over its core and fringe sub-areas; any other city is
// matched literally.
func Build(keywords []string, city string) (Filter, error) {
	f := Filter{ExcludeInactive: true}

	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		f.AnyOf = append(f.AnyOf, Condition{Field: FieldTitle, Pattern: regexp.QuoteMeta(k)})
	}

	if pattern := LocationPattern(city); pattern != "" {
		f.AllOf = append(f.AllOf, Condition{Field: FieldLocation, Pattern: pattern})
	}

	return Optimize(f)
}

// LocationPattern returns the escaped location regex for city.
func LocationPattern(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	area, ok := location.Lookup(city)
	if !ok {
		return regexp.QuoteMeta(city)
	}
	names := area.All()
	escaped := make([]string, 0, len(names))
	for _, n := range names {
		escaped = append(escaped, regexp.QuoteMeta(n))
	}
	return "(" + strings.Join(escaped, "|") + ")"
}

// Optimize drops empty conditions and an empty disjunction, and refuses a
// filter that has degenerated to only the active flag.
func Optimize(f Filter) (Filter, error) {
	f.AnyOf = compact(f.AnyOf)
	f.AllOf = compact(f.AllOf)
	if f.IsEmpty() {
		return f, ErrDegenerateFilter
	}
	return f, nil
}

func compact(conds []Condition) []Condition {
	if len(conds) == 0 {
		return nil
	}
	out := conds[:0:0]
	for _, c := range conds {
		if c.Field == "" || c.Pattern == "" {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package location maps a city to its greater-area sub-areas and derives the
// location weight the match scorer applies to fringe postings.
package location

import "strings"

// FringeWeight is the factor applied to sub-scores of jobs located in a
// fringe sub-area of the searched city.
const FringeWeight = 0.85

// GreaterArea is the set of sub-area names that make up a city's metro
// region. Core and Fringe are disjoint and ordered.
type GreaterArea struct {
	City   string
	Core   []string
	Fringe []string
}

// All returns core followed by fringe names.
func (g GreaterArea) All() []string {
	out := make([]string, 0, len(g.Core)+len(g.Fringe))
	out = append(out, g.Core...)
	return append(out, g.Fringe...)
}

var greaterAreas = map[string]GreaterArea{
	"sydney": {
		City: "Sydney",
		Core: []string{
			"Sydney", "Sydney CBD", "North Sydney", "Parramatta", "Chatswood",
			"Macquarie Park", "Ryde", "Surry Hills", "Pyrmont", "Ultimo",
			"Mascot", "Bondi Junction", "Alexandria", "St Leonards", "Rhodes",
		},
		Fringe: []string{
			"Penrith", "Campbelltown", "Liverpool", "Blacktown", "Castle Hill",
			"Hornsby", "Sutherland", "Norwest", "Baulkham Hills", "Richmond NSW",
			"Camden", "Gosford", "Wollongong",
		},
	},
	"melbourne": {
		City: "Melbourne",
		Core: []string{
			"Melbourne", "Melbourne CBD", "Southbank", "Docklands", "Richmond VIC",
			"South Melbourne", "Carlton", "Fitzroy", "Collingwood", "St Kilda",
			"Box Hill", "Cremorne", "Port Melbourne",
		},
		Fringe: []string{
			"Dandenong", "Frankston", "Werribee", "Melton", "Sunbury",
			"Craigieburn", "Pakenham", "Cranbourne", "Lilydale", "Geelong",
			"Mornington",
		},
	},
	"brisbane": {
		City: "Brisbane",
		Core: []string{
			"Brisbane", "Brisbane CBD", "Fortitude Valley", "South Brisbane",
			"Spring Hill", "Milton", "Newstead", "Toowong", "West End",
		},
		Fringe: []string{
			"Ipswich", "Logan", "Redcliffe", "Caboolture", "Cleveland",
			"Springfield", "North Lakes", "Gold Coast", "Sunshine Coast",
		},
	},
	"perth": {
		City: "Perth",
		Core: []string{
			"Perth", "Perth CBD", "West Perth", "East Perth", "Subiaco",
			"Northbridge", "Osborne Park",
		},
		Fringe: []string{
			"Joondalup", "Rockingham", "Mandurah", "Midland", "Armadale",
			"Fremantle", "Ellenbrook",
		},
	},
	"adelaide": {
		City: "Adelaide",
		Core: []string{
			"Adelaide", "Adelaide CBD", "North Adelaide", "Norwood", "Kent Town",
			"Mile End", "Keswick",
		},
		Fringe: []string{
			"Elizabeth", "Salisbury", "Mawson Lakes", "Noarlunga", "Gawler",
			"Mount Barker",
		},
	},
	"canberra": {
		City: "Canberra",
		Core: []string{
			"Canberra", "Canberra City", "Barton", "Parkes", "Civic", "Braddon",
			"Deakin", "Russell",
		},
		Fringe: []string{
			"Belconnen", "Tuggeranong", "Gungahlin", "Woden", "Queanbeyan",
			"Fyshwick",
		},
	},
}

// Lookup returns the greater area for city. The match is case-insensitive
// and tolerates state suffixes such as "Sydney NSW" or "Perth, WA".
func Lookup(city string) (GreaterArea, bool) {
	key := normalise(city)
	if key == "" {
		return GreaterArea{}, false
	}
	if area, ok := greaterAreas[key]; ok {
		return area, true
	}
	for name, area := range greaterAreas {
		if strings.HasPrefix(key, name+" ") || strings.HasPrefix(key, name+",") {
			return area, true
		}
	}
	return GreaterArea{}, false
}

// Cities returns the names of every city with a greater-area definition.
func Cities() []string {
	out := make([]string, 0, len(greaterAreas))
	for _, a := range greaterAreas {
		out = append(out, a.City)
	}
	return out
}

// ExpandedAreas returns the sub-area names used to widen a location match.
// Unknown cities yield the city itself.
func ExpandedAreas(city string) []string {
	if area, ok := Lookup(city); ok {
		return area.All()
	}
	if c := strings.TrimSpace(city); c != "" {
		return []string{c}
	}
	return nil
}

// Weight returns the location factor for a job located at jobLocation when
// the candidate searched city. Fringe names are checked before core names,
// since a fringe posting often also mentions the metro name.
func Weight(city, jobLocation string) float64 {
	area, ok := Lookup(city)
	if !ok {
		return 1.0
	}
	loc := strings.ToLower(jobLocation)
	for _, name := range area.Fringe {
		if containsWord(loc, strings.ToLower(name)) {
			return FringeWeight
		}
	}
	return 1.0
}

// IsFringe reports whether jobLocation falls in a fringe sub-area of city.
func IsFringe(city, jobLocation string) bool {
	return Weight(city, jobLocation) < 1.0
}

func normalise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// containsWord reports whether needle occurs in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; ; {
		idx := strings.Index(haystack[i:], needle)
		if idx < 0 {
			return false
		}
		start := i + idx
		end := start + len(needle)
		if boundary(haystack, start-1) && boundary(haystack, end) {
			return true
		}
		i = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

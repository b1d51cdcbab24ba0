package scoring

import (
	"regexp"
	"strings"

	"github.com/jonathan/job-matcher/internal/location"
)

// MaxKeyRequirements caps the requirements kept per job.
const MaxKeyRequirements = 6

// maxRequirementWords is the longest requirement kept, in words.
const maxRequirementWords = 3

var (
	softSkills = []string{
		"communication", "communication skills", "teamwork", "team player",
		"problem solving", "problem-solving", "attention to detail",
		"self-motivated", "self motivated", "work ethic", "interpersonal skills",
		"time management", "adaptability", "collaboration", "positive attitude",
		"fast learner", "passion", "passionate", "detail oriented", "detail-oriented",
	}
	genericTokens = []string{
		"experience", "skills", "requirements", "requirement", "other", "various",
		"n/a", "na", "none", "etc", "misc", "tbd", "relevant experience",
		"qualifications", "degree", "knowledge", "ability", "job", "role",
	}
	placeTokens = []string{
		"australia", "remote", "hybrid", "onsite", "on-site", "in office",
		"nsw", "vic", "qld", "wa", "sa", "tas", "act", "nt", "cbd",
	}

	// Company tenure: "our 24 years", "established in 1990", "since 1985".
	tenurePhrase = regexp.MustCompile(`(?i)\b(?:our|we have|we've)\s+(?:over\s+)?\d+\+?\s*(?:years?|yrs?)\b|\b(?:established|founded|operating|trading)\s+(?:in\s+|since\s+)?\d{4}\b|\bsince\s+\d{4}\b|\d+\+?\s*(?:years?|yrs?)\s+(?:of\s+)?(?:history|heritage|in business|of operation|operating|of excellence)`)
	// Candidate experience: "5+ years experience", "3-5 yrs of Python".
	experiencePhrase = regexp.MustCompile(`(?i)^(?:minimum\s+(?:of\s+)?|at least\s+|over\s+)?(\d{1,2})\s*(?:\+|\s*-\s*\d{1,2}|\s+or more)?\s*(?:years?|yrs?)\b(?:\s+(?:of\s+)?(?:\w+\s+)?(?:experience|exp)\b)?`)
)

var denylist = func() map[string]bool {
	m := make(map[string]bool)
	for _, group := range [][]string{softSkills, genericTokens, placeTokens} {
		for _, w := range group {
			m[w] = true
		}
	}
	for _, city := range location.Cities() {
		m[strings.ToLower(city)] = true
		if area, ok := location.Lookup(city); ok {
			for _, name := range area.All() {
				m[strings.ToLower(name)] = true
			}
		}
	}
	return m
}()

// filterRequirements keeps concrete, short requirement tokens. Candidate
// experience phrasing is normalised to "N+ years experience"; company
// tenure phrasing is dropped.
func filterRequirements(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		req, ok := normaliseRequirement(item)
		if !ok {
			continue
		}
		key := strings.ToLower(req)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, req)
		if len(out) == MaxKeyRequirements {
			break
		}
	}
	return out
}

func normaliseRequirement(item string) (string, bool) {
	item = strings.TrimSpace(bulletLead.ReplaceAllString(item, ""))
	item = strings.Trim(item, " .;:,*\"'")
	item = strings.Join(strings.Fields(item), " ")
	if item == "" {
		return "", false
	}

	if tenurePhrase.MatchString(item) {
		return "", false
	}
	if m := experiencePhrase.FindStringSubmatch(item); m != nil {
		return m[1] + "+ years experience", true
	}

	if len(strings.Fields(item)) > maxRequirementWords {
		return "", false
	}
	lower := strings.ToLower(item)
	if denylist[lower] {
		return "", false
	}
	for _, w := range strings.Fields(lower) {
		if denylist[w] && isPlaceOrSoft(w) {
			return "", false
		}
	}
	return item, true
}

// isPlaceOrSoft reports whether a single word alone disqualifies a phrase:
// location words and soft skills do, generic words like "experience" don't.
func isPlaceOrSoft(w string) bool {
	for _, g := range genericTokens {
		if g == w {
			return false
		}
	}
	return true
}

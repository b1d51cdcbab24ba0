package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// Section markers in the scoring reply.
const (
	sectionScores          = "SCORES"
	sectionHighlights      = "HIGHLIGHTS"
	sectionListSummary     = "LIST SUMMARY"
	sectionDetailedSummary = "DETAILED SUMMARY"
	sectionKeyRequirements = "KEY REQUIREMENTS"
	sectionAnalysis        = "ANALYSIS"
)

var knownSections = []string{
	sectionScores, sectionHighlights, sectionListSummary,
	sectionDetailedSummary, sectionKeyRequirements, sectionAnalysis,
}

var (
	scoreLine  = regexp.MustCompile(`(?i)^[\s*\-#]*(experience|industry|skills|other)\b[^:=\d]*[:=]\s*\**\s*(\d{1,3})`)
	bulletLead = regexp.MustCompile(`^\s*(?:[-*•·]+|\d+[.)])\s*`)
)

// reply is the parsed scoring response. A section absent from the reply is
// absent from sections.
type reply struct {
	scores   map[string]int
	sections map[string][]string
}

// parseReply splits text on the known section markers. A marker may be
// decorated with markdown (## or **) and may carry content after the colon.
func parseReply(text string) reply {
	r := reply{scores: map[string]int{}, sections: map[string][]string{}}

	current := ""
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if name, rest, ok := matchMarker(line); ok {
			current = name
			if _, seen := r.sections[current]; !seen {
				r.sections[current] = nil
			}
			line = rest
		}
		line = strings.TrimSpace(line)
		if current == "" || line == "" {
			continue
		}
		if current == sectionScores {
			if m := scoreLine.FindStringSubmatch(line); m != nil {
				if v, err := strconv.Atoi(m[2]); err == nil {
					r.scores[strings.ToLower(m[1])] = v
				}
			}
			continue
		}
		r.sections[current] = append(r.sections[current], line)
	}
	return r
}

func matchMarker(line string) (name, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "#* ")
	upper := strings.ToUpper(trimmed)
	for _, s := range knownSections {
		if !strings.HasPrefix(upper, s) {
			continue
		}
		after := strings.TrimLeft(trimmed[len(s):], "* ")
		if !strings.HasPrefix(after, ":") {
			continue
		}
		return s, strings.TrimLeft(after[1:], "* "), true
	}
	return "", "", false
}

// subScores returns the four sub-scores, or false if any is missing.
func (r reply) subScores() (e, i, s, o int, ok bool) {
	var found [4]bool
	e, found[0] = r.scores["experience"]
	i, found[1] = r.scores["industry"]
	s, found[2] = r.scores["skills"]
	o, found[3] = r.scores["other"]
	return e, i, s, o, found[0] && found[1] && found[2] && found[3]
}

// text joins a prose section with spaces.
func (r reply) text(section string) string {
	return strings.TrimSpace(strings.Join(r.sections[section], " "))
}

// items returns a list section with bullet markers removed.
func (r reply) items(section string) []string {
	var out []string
	for _, line := range r.sections[section] {
		line = strings.TrimSpace(bulletLead.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

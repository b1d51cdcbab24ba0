package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/job-matcher/internal/types"
)

// UserType biases the framing of the scoring prompt. It never changes the
// arithmetic.
type UserType string

const (
	UserOpportunity UserType = "opportunity"
	UserFit         UserType = "fit"
	UserNeutral     UserType = "neutral"
)

var (
	growthPriorities    = []string{"growth", "learning", "career progression", "promotion", "challenge", "new skills", "leadership opportunit", "career change"}
	stabilityPriorities = []string{"stability", "job security", "work-life balance", "work life balance", "flexib", "salary", "compensation", "benefits", "culture"}

	managerTitles   = []string{"manager", "team lead", "lead"}
	executiveTitles = []string{"director", "head of", "vp", "vice president", "chief", "cto", "ceo", "cfo", "coo", "cio", "c-level"}

	salaryNumber = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k|K)?`)
)

// ClassifyUser derives the user type from stated priorities, seniority vs
// expected salary, relocation and seniority jumps.
func ClassifyUser(p types.Profile) UserType {
	opportunity, fit := 0, 0

	for _, prio := range p.CareerPriorities {
		prio = strings.ToLower(prio)
		if containsAnyOf(prio, growthPriorities) {
			opportunity++
		}
		if containsAnyOf(prio, stabilityPriorities) {
			fit++
		}
	}

	if isSeniorityJump(p.CurrentPosition, p.ExpectedPosition) {
		opportunity += 2
	}

	level := seniorityLevel(p.Seniority)
	tier := salaryTier(p.ExpectedSalary)
	if level > 0 && tier > 0 {
		if tier > level {
			opportunity++
		} else {
			fit++
		}
	}

	if p.OpenToRelocate {
		opportunity++
	}

	switch {
	case opportunity > fit:
		return UserOpportunity
	case fit > opportunity:
		return UserFit
	default:
		return UserNeutral
	}
}

// isSeniorityJump is true for a manager-level current role moving to a
// director, VP or C-level one.
func isSeniorityJump(current, expected string) bool {
	current, expected = strings.ToLower(current), strings.ToLower(expected)
	if current == "" || expected == "" {
		return false
	}
	if containsAnyWord(current, executiveTitles) {
		return false
	}
	return containsAnyWord(current, managerTitles) && containsAnyWord(expected, executiveTitles)
}

// seniorityLevel maps a seniority label to 1 (junior) .. 5 (executive); 0 is unknown.
func seniorityLevel(s string) int {
	s = strings.ToLower(s)
	switch {
	case s == "":
		return 0
	case containsAnyWord(s, executiveTitles):
		return 5
	case containsAnyWord(s, []string{"principal", "staff", "manager", "lead"}):
		return 4
	case strings.Contains(s, "senior"):
		return 3
	case containsAnyWord(s, []string{"mid", "intermediate", "mid-level"}):
		return 2
	case containsAnyWord(s, []string{"junior", "graduate", "entry", "intern"}):
		return 1
	}
	return 0
}

// salaryTier maps an annual salary expectation to 1 .. 5 on the same scale
// as seniorityLevel; 0 is unknown.
func salaryTier(s string) int {
	m := salaryNumber.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	if m[2] != "" {
		n *= 1000
	}
	switch {
	case n < 1000:
		return 0
	case n < 70000:
		return 1
	case n < 100000:
		return 2
	case n < 140000:
		return 3
	case n < 200000:
		return 4
	default:
		return 5
	}
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// containsAnyWord matches candidates on word boundaries.
func containsAnyWord(s string, words []string) bool {
	padded := " " + strings.Map(func(r rune) rune {
		if r == ',' || r == '/' || r == '(' || r == ')' || r == '.' {
			return ' '
		}
		return r
	}, s) + " "
	for _, w := range words {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}

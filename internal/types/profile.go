package types

import "strings"

// Profile is the candidate description supplied by the profile producer
// (resume parser or profile form). The pipeline treats it as read-only input.
type Profile struct {
	Skills           []string `json:"skills,omitempty"`
	JobTitles        []string `json:"jobTitles,omitempty"`
	City             string   `json:"city,omitempty"`
	Seniority        string   `json:"seniority,omitempty"`
	CurrentPosition  string   `json:"currentPosition,omitempty"`
	ExpectedPosition string   `json:"expectedPosition,omitempty"`
	ExpectedSalary   string   `json:"expectedSalary,omitempty"`
	OpenToRelocate   bool     `json:"openToRelocate,omitempty"`
	CareerPriorities []string `json:"careerPriorities,omitempty"`
	Industries       []string `json:"industries,omitempty"`
}

// TargetTitle returns the literal title the candidate is searching for.
func (p *Profile) TargetTitle() string {
	for _, t := range p.JobTitles {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}

// ProfileFromSearch builds a minimal profile for requests that only carry a
// title and a city.
func ProfileFromSearch(jobTitle, city string) Profile {
	p := Profile{City: strings.TrimSpace(city)}
	if t := strings.TrimSpace(jobTitle); t != "" {
		p.JobTitles = []string{t}
	}
	return p
}

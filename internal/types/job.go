// Package types provides the records shared across the job matching pipeline.
package types

import (
	"errors"
	"strings"
)

// SourceType classifies the channel a job was published through.
type SourceType string

const (
	// SourceDirectEmployer is a posting taken from an employer's own ATS board.
	SourceDirectEmployer SourceType = "direct-employer"
	// SourcePublicSector is a posting from a government jobs board.
	SourcePublicSector SourceType = "public-sector"
	// SourcePlatformListed is a posting aggregated by a third-party job platform.
	SourcePlatformListed SourceType = "platform-listed"
)

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceDirectEmployer, SourcePublicSector, SourcePlatformListed:
		return true
	}
	return false
}

// SubScores holds the four scoring dimensions produced by the match scorer.
type SubScores struct {
	Experience int `json:"experience" bson:"experience"`
	Industry   int `json:"industry" bson:"industry"`
	Skills     int `json:"skills" bson:"skills"`
	Other      int `json:"other" bson:"other"`
}

// Job is a single job posting as it flows between adapters, the store,
// the scorer and the HTTP response.
type Job struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Description string     `json:"description,omitempty"`
	Salary      string     `json:"salary,omitempty"`
	JobType     string     `json:"jobType,omitempty"`
	Experience  string     `json:"experience,omitempty"`
	PostedDate  string     `json:"postedDate,omitempty"`
	URL         string     `json:"url,omitempty"`
	Platform    string     `json:"platform,omitempty"`
	SourceType  SourceType `json:"sourceType,omitempty"`

	// Written by the match scorer.
	MatchScore      int        `json:"matchScore,omitempty"`
	SubScores       *SubScores `json:"subScores,omitempty"`
	MatchAnalysis   string     `json:"matchAnalysis,omitempty"`
	MatchHighlights []string   `json:"matchHighlights,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	DetailedSummary string     `json:"detailedSummary,omitempty"`
	KeyRequirements []string   `json:"keyRequirements,omitempty"`
}

// ErrMissingID is returned by Validate when a job has no identity.
var ErrMissingID = errors.New("job id is required")

// ErrMissingTitle is returned by Validate when a job has no title.
var ErrMissingTitle = errors.New("job title is required")

// Validate normalises optional fields in place and rejects jobs that lack
// an identity or a title. Adapters and stores call it before handing a job
// to the rest of the pipeline.
func (j *Job) Validate() error {
	j.ID = strings.TrimSpace(j.ID)
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)

	if j.ID == "" {
		return ErrMissingID
	}
	if j.Title == "" {
		return ErrMissingTitle
	}
	if j.Company == "" {
		j.Company = "Unknown"
	}
	if j.Location == "" {
		j.Location = "Unknown"
	}
	if !j.SourceType.Valid() {
		j.SourceType = SourcePlatformListed
	}
	return nil
}

// DedupByID returns jobs with duplicate ids removed, keeping the first
// occurrence and preserving order.
func DedupByID(jobs []Job) []Job {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.ID]; ok {
			continue
		}
		seen[j.ID] = struct{}{}
		out = append(out, j)
	}
	return out
}

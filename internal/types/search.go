package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Limits applied to SearchRequest.Limit per retrieval path.
const (
	DefaultLimit  = 20
	MaxStoreLimit = 600
	MaxLiveLimit  = 100
	DefaultPage   = 1
)

// Source tags reported in the response envelope.
const (
	SourceHotJobsDatabase = "hot_jobs_database"
	SourceRealtime        = "realtime"
	SourceError           = "error"
)

// SearchRequest is a request for a ranked page of jobs.
type SearchRequest struct {
	JobTitle string `json:"jobTitle" validate:"required,max=200"`
	City     string `json:"city" validate:"required,max=200"`
	Platform string `json:"platform,omitempty" validate:"omitempty,max=64"`
	Limit    int    `json:"limit" validate:"gte=0"`
	Page     int    `json:"page" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks field constraints and fills defaults for page and limit.
func (r *SearchRequest) Validate() error {
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.City = strings.TrimSpace(r.City)
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return nil
}

// ClampLimit bounds the request limit for the chosen retrieval path.
func (r *SearchRequest) ClampLimit(max int) int {
	if r.Limit > max {
		return max
	}
	return r.Limit
}

// ScoreRequest is the body of POST /jobs/score.
type ScoreRequest struct {
	// Jobs are checked one by one with Job.Validate; invalid ones are dropped.
	Jobs     []Job    `json:"jobs"`
	JobTitle string   `json:"jobTitle" validate:"max=200"`
	City     string   `json:"city" validate:"max=200"`
	Limit    int      `json:"limit" validate:"gte=0"`
	Page     int      `json:"page" validate:"gte=0"`
	IsHotJob bool     `json:"isHotJob"`
	Platform string   `json:"platform,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
}

// Validate checks the score request and fills paging defaults.
func (r *ScoreRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return nil
}

// Analysis carries diagnostic details alongside the ranked jobs.
type Analysis struct {
	PlatformDistribution map[string]int    `json:"platformDistribution,omitempty"`
	PlatformErrors       map[string]string `json:"platformErrors,omitempty"`
	ExpandedTitles       []string          `json:"expandedTitles,omitempty"`
	Summary              string            `json:"summary,omitempty"`
	Reasoning            string            `json:"reasoning,omitempty"`
}

// SearchResponse is the uniform success envelope.
type SearchResponse struct {
	Jobs       []Job     `json:"jobs"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
	Source     string    `json:"source"`
	IsHotJob   bool      `json:"isHotJob"`
	Analysis   *Analysis `json:"analysis,omitempty"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Source  string `json:"source"`
}

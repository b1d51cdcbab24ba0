// Package scoring evaluates jobs against a candidate profile with an LLM and
// turns the reply into a weighted match score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/location"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Score bounds.
const (
	MinSubScore    = 60
	MaxSubScore    = 95
	MaxSkillsScore = 90
	MinScore       = 65
	MaxScore       = 95

	// FallbackScore is used for every sub-score and the total when a job
	// cannot be scored.
	FallbackScore = 70

	// IndirectPlatformWeight discounts jobs not posted by the employer itself.
	IndirectPlatformWeight = 0.95

	// DefaultConcurrency is the number of jobs scored in parallel.
	DefaultConcurrency = 8
)

// Aggregation weights; they sum to 1.
const (
	weightExperience = 0.30
	weightSkills     = 0.35
	weightIndustry   = 0.20
	weightOther      = 0.15
)

// maxDescriptionChars bounds the job text sent to the model.
const maxDescriptionChars = 4000

// ScoringError is a failed evaluation of one job.
type ScoringError struct {
	JobID string
	Stage string
	Cause error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring job %s failed at %s: %v", e.JobID, e.Stage, e.Cause)
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}

// Result is the evaluation of one job.
type Result struct {
	Score           int
	SubScores       types.SubScores
	Highlights      []string
	ListSummary     string
	DetailedSummary string
	KeyRequirements []string
	Analysis        string
	UserType        UserType
	// Fallback is set when the defaults were used because evaluation failed.
	Fallback bool
}

// Apply writes r onto job.
func (r Result) Apply(job *types.Job) {
	subs := r.SubScores
	job.MatchScore = r.Score
	job.SubScores = &subs
	job.MatchHighlights = r.Highlights
	job.Summary = r.ListSummary
	job.DetailedSummary = r.DetailedSummary
	job.KeyRequirements = r.KeyRequirements
	job.MatchAnalysis = r.Analysis
}

// Scorer scores jobs through an LLM client.
type Scorer struct {
	llm         llm.Client
	log         *zap.Logger
	concurrency int
}

// NewScorer returns a scorer running at most concurrency evaluations at once.
func NewScorer(client llm.Client, log *zap.Logger, concurrency int) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scorer{llm: client, log: log, concurrency: concurrency}
}

// Score evaluates one job. It never fails: any error is logged and replaced
// by the fallback result.
func (s *Scorer) Score(ctx context.Context, job types.Job, profile types.Profile) Result {
	r, err := s.Evaluate(ctx, job, profile)
	if err != nil {
		s.log.Warn("job scoring fell back to defaults", zap.String("job_id", job.ID), zap.Error(err))
		return Fallback(job, ClassifyUser(profile))
	}
	return r
}

// Evaluate asks the model for sub-scores and text, then weights and clamps
// them. Failures are returned as *ScoringError.
func (s *Scorer) Evaluate(ctx context.Context, job types.Job, profile types.Profile) (Result, error) {
	userType := ClassifyUser(profile)
	if s.llm == nil {
		return Result{}, &ScoringError{JobID: job.ID, Stage: "llm", Cause: fmt.Errorf("no llm client configured")}
	}

	prompt, err := buildPrompt(job, profile, userType)
	if err != nil {
		return Result{}, &ScoringError{JobID: job.ID, Stage: "prompt", Cause: err}
	}
	text, err := s.llm.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return Result{}, &ScoringError{JobID: job.ID, Stage: "llm", Cause: err}
	}

	parsed := parseReply(text)
	e, i, sk, o, ok := parsed.subScores()
	if !ok {
		s.log.Debug("unparseable scoring reply",
			zap.String("job_id", job.ID), zap.String("reply", logger.TruncateForLog(text, 200)))
		return Result{}, &ScoringError{JobID: job.ID, Stage: "parse", Cause: fmt.Errorf("reply is missing one or more sub-scores")}
	}

	raw := types.SubScores{
		Experience: clamp(e, MinSubScore, MaxSubScore),
		Industry:   clamp(i, MinSubScore, MaxSubScore),
		Skills:     clamp(sk, MinSubScore, MaxSkillsScore),
		Other:      clamp(o, MinSubScore, MaxSubScore),
	}
	weighted := Weigh(raw, CombinedWeight(job, profile.City))

	r := Result{
		Score:           Total(weighted),
		SubScores:       weighted,
		Highlights:      parsed.items(sectionHighlights),
		ListSummary:     parsed.text(sectionListSummary),
		DetailedSummary: parsed.text(sectionDetailedSummary),
		KeyRequirements: filterRequirements(parsed.items(sectionKeyRequirements)),
		Analysis:        parsed.text(sectionAnalysis),
		UserType:        userType,
	}
	fillTextDefaults(&r, job)
	return r, nil
}

// ScoreAll scores jobs concurrently and returns enriched copies in input
// order. One job's failure only affects that job.
func (s *Scorer) ScoreAll(ctx context.Context, jobs []types.Job, profile types.Profile) []types.Job {
	out := make([]types.Job, len(jobs))
	copy(out, jobs)

	fell := make([]bool, len(out))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range out {
		g.Go(func() error {
			r := s.Score(ctx, out[i], profile)
			r.Apply(&out[i])
			fell[i] = r.Fallback
			return nil
		})
	}
	_ = g.Wait()

	fallbacks := 0
	for _, f := range fell {
		if f {
			fallbacks++
		}
	}
	s.log.Info("scored jobs", zap.Int("jobs", len(out)), zap.Int("fallbacks", fallbacks))
	return out
}

// PlatformWeight is 1 for direct-employer postings and 0.95 otherwise.
func PlatformWeight(st types.SourceType) float64 {
	if st == types.SourceDirectEmployer {
		return 1.0
	}
	return IndirectPlatformWeight
}

// CombinedWeight is the platform weight times the location weight of the
// job relative to the searched city.
func CombinedWeight(job types.Job, city string) float64 {
	return PlatformWeight(job.SourceType) * location.Weight(city, job.Location)
}

// Weigh multiplies each sub-score by w and rounds.
func Weigh(s types.SubScores, w float64) types.SubScores {
	return types.SubScores{
		Experience: round(float64(s.Experience) * w),
		Industry:   round(float64(s.Industry) * w),
		Skills:     round(float64(s.Skills) * w),
		Other:      round(float64(s.Other) * w),
	}
}

// Total aggregates weighted sub-scores and clamps to [MinScore, MaxScore].
func Total(s types.SubScores) int {
	t := round(weightExperience*float64(s.Experience) +
		weightSkills*float64(s.Skills) +
		weightIndustry*float64(s.Industry) +
		weightOther*float64(s.Other))
	return clamp(t, MinScore, MaxScore)
}

var fallbackSubScores = types.SubScores{
	Experience: FallbackScore,
	Industry:   FallbackScore,
	Skills:     FallbackScore,
	Other:      FallbackScore,
}

// Fallback is the result used when a job cannot be evaluated.
func Fallback(job types.Job, userType UserType) Result {
	r := Result{
		Score:     FallbackScore,
		SubScores: fallbackSubScores,
		UserType:  userType,
		Fallback:  true,
	}
	fillTextDefaults(&r, job)
	return r
}

func fillTextDefaults(r *Result, job types.Job) {
	company := orUnknown(job.Company)
	loc := orUnknown(job.Location)
	if r.ListSummary == "" {
		r.ListSummary = fmt.Sprintf("%s at %s in %s.", job.Title, company, loc)
	}
	if r.DetailedSummary == "" {
		r.DetailedSummary = fmt.Sprintf("%s is hiring a %s in %s. Review the full description to see how your experience lines up with the role.", company, job.Title, loc)
	}
	if len(r.Highlights) == 0 {
		r.Highlights = []string{fmt.Sprintf("%s role based in %s", job.Title, loc)}
	}
	if r.KeyRequirements == nil {
		r.KeyRequirements = []string{}
	}
}

func buildPrompt(job types.Job, p types.Profile, userType UserType) (string, error) {
	framing, err := prompts.Get("scoring.json", "framing-"+string(userType))
	if err != nil {
		return "", err
	}
	return prompts.Render("scoring.json", "score-job", map[string]string{
		"Framing": framing,
		"Profile": describeProfile(p),
		"Job":     describeJob(job),
	})
}

func describeProfile(p types.Profile) string {
	var sb strings.Builder
	line := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, v)
		}
	}
	line("Target title", p.TargetTitle())
	line("City", p.City)
	line("Seniority", p.Seniority)
	line("Current position", p.CurrentPosition)
	line("Expected position", p.ExpectedPosition)
	line("Expected salary", p.ExpectedSalary)
	line("Skills", strings.Join(p.Skills, ", "))
	line("Industries", strings.Join(p.Industries, ", "))
	line("Career priorities", strings.Join(p.CareerPriorities, ", "))
	if p.OpenToRelocate {
		line("Open to relocate", "yes")
	}
	return strings.TrimSpace(sb.String())
}

func describeJob(j types.Job) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nCompany: %s\nLocation: %s\n", j.Title, orUnknown(j.Company), orUnknown(j.Location))
	if j.JobType != "" {
		fmt.Fprintf(&sb, "Type: %s\n", j.JobType)
	}
	if j.Salary != "" {
		fmt.Fprintf(&sb, "Salary: %s\n", j.Salary)
	}
	if j.Experience != "" {
		fmt.Fprintf(&sb, "Experience: %s\n", j.Experience)
	}
	desc := j.Description
	if len(desc) > maxDescriptionChars {
		desc = strings.ToValidUTF8(desc[:maxDescriptionChars], "")
	}
	if desc != "" {
		fmt.Fprintf(&sb, "Description:\n%s\n", desc)
	}
	return strings.TrimSpace(sb.String())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(f float64) int {
	return int(math.Round(f))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

package hotjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/prompts"
	"github.com/jonathan/job-matcher/internal/schemas"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
)

// Score penalties for jobs matched only through an expanded title.
const (
	PrimaryPenalty   = 3
	SecondaryPenalty = 5
	PenaltyFloor     = 50
)

// Searcher runs a keyword search against the job store. *query.Executor
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, keywords []string, city string, limit int) ([]types.Job, error)
}

// Expansion is the result of expanding one hot search.
type Expansion struct {
	Jobs      []types.Job
	Original  string
	Primary   []string
	Secondary []string
	Summary   string
	Reasoning string
	// Degraded is set when the LLM call failed and only the original title was searched.
	Degraded bool
}

// Titles returns the searched titles, original first.
func (e *Expansion) Titles() []string {
	return unionTitles(e.Original, e.Primary, e.Secondary)
}

type titleReply struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Summary   string   `json:"summary"`
	Reasoning string   `json:"reasoning"`
}

// Expander widens a hot search with LLM-suggested titles.
type Expander struct {
	llm   llm.Client
	store Searcher
	log   *zap.Logger
}

// NewExpander returns an expander. client may be nil, in which case every
// expansion is degraded to the original title.
func NewExpander(client llm.Client, store Searcher, log *zap.Logger) *Expander {
	if log == nil {
		log = zap.NewNop()
	}
	return &Expander{llm: client, store: store, log: log}
}

// Expand searches the store for the profile's target title and its
// alternatives in the profile city's greater area, then applies the tiered
// penalties. A store failure is returned; an LLM failure is not.
func (e *Expander) Expand(ctx context.Context, profile types.Profile, limit int) (*Expansion, error) {
	original := profile.TargetTitle()
	if original == "" {
		return nil, fmt.Errorf("profile has no target title")
	}

	exp := &Expansion{Original: original}
	reply, err := e.suggest(ctx, profile, original)
	if err != nil {
		e.log.Warn("title expansion failed, searching original title only",
			zap.String("title", original), zap.Error(err))
		exp.Degraded = true
	} else {
		exp.Primary = cleanTitles(reply.Primary, original, nil)
		exp.Secondary = cleanTitles(reply.Secondary, original, exp.Primary)
		exp.Summary = strings.TrimSpace(reply.Summary)
		exp.Reasoning = strings.TrimSpace(reply.Reasoning)
	}

	jobs, err := e.store.Search(ctx, exp.Titles(), profile.City, limit)
	if err != nil {
		return exp, err
	}
	exp.Penalise(jobs)
	exp.Jobs = jobs

	e.log.Debug("hot search expanded",
		zap.String("title", original),
		zap.Strings("primary", exp.Primary),
		zap.Strings("secondary", exp.Secondary),
		zap.Int("jobs", len(jobs)))
	return exp, nil
}

func (e *Expander) suggest(ctx context.Context, p types.Profile, original string) (*titleReply, error) {
	if e.llm == nil {
		return nil, fmt.Errorf("no llm client configured")
	}
	prompt, err := prompts.Render("expansion.json", "expand-titles", map[string]string{
		"Title":           original,
		"City":            orDash(p.City),
		"Seniority":       orDash(p.Seniority),
		"CurrentPosition": orDash(p.CurrentPosition),
		"Skills":          orDash(strings.Join(p.Skills, ", ")),
		"Industries":      orDash(strings.Join(p.Industries, ", ")),
	})
	if err != nil {
		return nil, err
	}

	raw, err := e.llm.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, err
	}
	raw = llm.ExtractJSONObject(raw)
	if err := schemas.Validate(schemas.TitleExpansion, raw); err != nil {
		return nil, err
	}

	var reply titleReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse title expansion: %w", err)
	}
	return &reply, nil
}

// Penalise applies the tiered title penalties to jobs in place. Jobs scored
// after retrieval go through it again so the tier survives rescoring.
func (e *Expansion) Penalise(jobs []types.Job) {
	for i := range jobs {
		jobs[i].MatchScore = adjustScore(jobs[i], e.Original, e.Primary, e.Secondary)
	}
}

// adjustScore applies the first matching tier: original, primary, secondary.
func adjustScore(job types.Job, original string, primary, secondary []string) int {
	title := strings.ToLower(job.Title)
	if strings.Contains(title, strings.ToLower(original)) {
		return job.MatchScore
	}
	if containsAny(title, primary) {
		return penalise(job.MatchScore, PrimaryPenalty)
	}
	if containsAny(title, secondary) {
		return penalise(job.MatchScore, SecondaryPenalty)
	}
	return job.MatchScore
}

// penalise subtracts p but never takes a score below the floor, and never
// raises an already lower score.
func penalise(score, p int) int {
	if score <= PenaltyFloor {
		return score
	}
	score -= p
	if score < PenaltyFloor {
		return PenaltyFloor
	}
	return score
}

func containsAny(title string, candidates []string) bool {
	for _, c := range candidates {
		if c != "" && strings.Contains(title, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// cleanTitles trims and dedups titles, dropping the original and anything in exclude.
func cleanTitles(titles []string, original string, exclude []string) []string {
	seen := map[string]bool{strings.ToLower(original): true}
	for _, x := range exclude {
		seen[strings.ToLower(x)] = true
	}
	var out []string
	for _, t := range titles {
		t = strings.Join(strings.Fields(t), " ")
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func unionTitles(original string, lists ...[]string) []string {
	out := []string{original}
	seen := map[string]bool{strings.ToLower(original): true}
	for _, l := range lists {
		for _, t := range l {
			if key := strings.ToLower(t); !seen[key] {
				seen[key] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

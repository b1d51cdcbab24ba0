package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/job-matcher/internal/fetch"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
)

// DefaultLeverURL is the public Lever postings API.
const DefaultLeverURL = "https://api.lever.co/v0/postings"

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"`
	DescriptionPlain string `json:"descriptionPlain"`
	Description      string `json:"description"`
	Categories       struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	SalaryRange *struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
		Interval string  `json:"interval"`
	} `json:"salaryRange"`
}

// Lever searches employer boards through the Lever postings API.
type Lever struct {
	baseURL string
	boards  []Board
	client  *fetch.Client
	log     *zap.Logger
}

// NewLever returns a Lever adapter over boards. An empty baseURL selects
// DefaultLeverURL.
func NewLever(baseURL string, boards []Board, client *fetch.Client, log *zap.Logger) *Lever {
	if baseURL == "" {
		baseURL = DefaultLeverURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Lever{baseURL: baseURL, boards: boards, client: client, log: log}
}

// Name implements Adapter.
func (l *Lever) Name() string { return "lever" }

// Fetch implements Adapter.
func (l *Lever) Fetch(ctx context.Context, title, city string, limit int) ([]types.Job, error) {
	return fetchBoards(ctx, l.boards, l.log.With(zap.String("platform", l.Name())), func(ctx context.Context, b Board) ([]types.Job, error) {
		return l.fetchBoard(ctx, b, title, city)
	}, limit)
}

func (l *Lever) fetchBoard(ctx context.Context, b Board, title, city string) ([]types.Job, error) {
	u := fmt.Sprintf("%s/%s?mode=json", l.baseURL, url.PathEscape(b.Slug))
	var postings []leverPosting
	if err := l.client.GetJSON(ctx, u, &postings); err != nil {
		return nil, err
	}

	company := b.Name
	if company == "" {
		company = b.Slug
	}
	var out []types.Job
	for _, p := range postings {
		if !titleMatches(p.Text, title) || !locationMatches(p.Categories.Location, city) {
			continue
		}
		desc := p.DescriptionPlain
		if desc == "" {
			desc = fetch.HTMLToText(p.Description)
		}
		job := types.Job{
			ID:          "lever:" + b.Slug + ":" + p.ID,
			Title:       p.Text,
			Company:     company,
			Location:    p.Categories.Location,
			Description: strings.TrimSpace(desc),
			JobType:     p.Categories.Commitment,
			URL:         p.HostedURL,
			Platform:    l.Name(),
			SourceType:  types.SourceDirectEmployer,
		}
		if p.CreatedAt > 0 {
			job.PostedDate = time.UnixMilli(p.CreatedAt).UTC().Format(time.RFC3339)
		}
		if s := p.SalaryRange; s != nil && s.Max > 0 {
			job.Salary = fmt.Sprintf("%s %.0f-%.0f %s", s.Currency, s.Min, s.Max, strings.ToLower(s.Interval))
		}
		out = append(out, job)
	}
	return out, nil
}

package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/jonathan/job-matcher/internal/fetch"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Board is one employer board on an ATS.
type Board struct {
	Slug string `mapstructure:"slug" validate:"required"`
	Name string `mapstructure:"name"`
}

// DefaultGreenhouseURL is the public Greenhouse job board API.
const DefaultGreenhouseURL = "https://boards-api.greenhouse.io/v1/boards"

// boardConcurrency caps parallel board requests within one adapter call.
const boardConcurrency = 4

type greenhouseJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	UpdatedAt   string `json:"updated_at"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Metadata []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	} `json:"metadata"`
}

// Greenhouse searches employer boards through the Greenhouse board API.
type Greenhouse struct {
	baseURL string
	boards  []Board
	client  *fetch.Client
	log     *zap.Logger
}

// NewGreenhouse returns a Greenhouse adapter over boards. An empty baseURL
// selects DefaultGreenhouseURL.
func NewGreenhouse(baseURL string, boards []Board, client *fetch.Client, log *zap.Logger) *Greenhouse {
	if baseURL == "" {
		baseURL = DefaultGreenhouseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Greenhouse{baseURL: baseURL, boards: boards, client: client, log: log}
}

// Name implements Adapter.
func (g *Greenhouse) Name() string { return "greenhouse" }

// Fetch implements Adapter. A board that fails is skipped; the call fails
// only when every board failed.
func (g *Greenhouse) Fetch(ctx context.Context, title, city string, limit int) ([]types.Job, error) {
	return fetchBoards(ctx, g.boards, g.log.With(zap.String("platform", g.Name())), func(ctx context.Context, b Board) ([]types.Job, error) {
		return g.fetchBoard(ctx, b, title, city)
	}, limit)
}

func (g *Greenhouse) fetchBoard(ctx context.Context, b Board, title, city string) ([]types.Job, error) {
	u := fmt.Sprintf("%s/%s/jobs?content=true", g.baseURL, url.PathEscape(b.Slug))
	var resp struct {
		Jobs []greenhouseJob `json:"jobs"`
	}
	if err := g.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	company := b.Name
	if company == "" {
		company = b.Slug
	}
	var out []types.Job
	for _, j := range resp.Jobs {
		if !titleMatches(j.Title, title) || !locationMatches(j.Location.Name, city) {
			continue
		}
		out = append(out, types.Job{
			ID:          "greenhouse:" + b.Slug + ":" + strconv.FormatInt(j.ID, 10),
			Title:       j.Title,
			Company:     company,
			Location:    j.Location.Name,
			Description: fetch.HTMLToText(j.Content),
			Salary:      metadataValue(j, "salary"),
			JobType:     metadataValue(j, "employment type"),
			PostedDate:  j.UpdatedAt,
			URL:         j.AbsoluteURL,
			Platform:    g.Name(),
			SourceType:  types.SourceDirectEmployer,
		})
	}
	return out, nil
}

func metadataValue(j greenhouseJob, name string) string {
	for _, m := range j.Metadata {
		if !equalFold(m.Name, name) || m.Value == nil {
			continue
		}
		if s, ok := m.Value.(string); ok {
			return s
		}
		return fmt.Sprint(m.Value)
	}
	return ""
}

// fetchBoards runs fetchOne for each board with bounded concurrency and
// concatenates results in board order.
func fetchBoards(ctx context.Context, boards []Board, log *zap.Logger, fetchOne func(context.Context, Board) ([]types.Job, error), limit int) ([]types.Job, error) {
	if len(boards) == 0 {
		return nil, fmt.Errorf("no boards configured")
	}

	results := make([][]types.Job, len(boards))
	var (
		mu       sync.Mutex
		failures int
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boardConcurrency)
	for i, b := range boards {
		g.Go(func() error {
			jobs, err := fetchOne(gctx, b)
			if err != nil {
				log.Warn("board fetch failed", zap.String("board", b.Slug), zap.Error(err))
				mu.Lock()
				failures++
				lastErr = err
				mu.Unlock()
				return nil
			}
			results[i] = jobs
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(boards) {
		return nil, fmt.Errorf("all %d boards failed: %w", failures, lastErr)
	}
	var out []types.Job
	for _, r := range results {
		out = append(out, r...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
	}
	return out, nil
}

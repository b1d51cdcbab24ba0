package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-matcher/internal/fetch"
	"github.com/jonathan/job-matcher/internal/types"
)

// FeedConfig describes a JSON search feed, such as a job aggregator or a
// government jobs board.
type FeedConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	// URL is the search endpoint; title, city and limit are added as query
	// parameters named by the Param fields.
	URL        string           `mapstructure:"url" validate:"required,url"`
	TitleParam string           `mapstructure:"title_param"`
	CityParam  string           `mapstructure:"city_param"`
	LimitParam string           `mapstructure:"limit_param"`
	SourceType types.SourceType `mapstructure:"source_type"`
	APIKey     string           `mapstructure:"api_key"`
}

type feedJob struct {
	ID          any    `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
	JobType     string `json:"jobType"`
	Experience  string `json:"experience"`
	PostedDate  string `json:"postedDate"`
	URL         string `json:"url"`
}

// Feed is an adapter over a FeedConfig. Jobs whose URL points at an
// employer's own ATS are tagged direct-employer regardless of the feed's
// source type.
type Feed struct {
	cfg    FeedConfig
	client *fetch.Client
}

// NewFeed returns a feed adapter, filling default parameter names.
func NewFeed(cfg FeedConfig, client *fetch.Client) *Feed {
	if cfg.TitleParam == "" {
		cfg.TitleParam = "q"
	}
	if cfg.CityParam == "" {
		cfg.CityParam = "location"
	}
	if cfg.LimitParam == "" {
		cfg.LimitParam = "limit"
	}
	if !cfg.SourceType.Valid() {
		cfg.SourceType = types.SourcePlatformListed
	}
	return &Feed{cfg: cfg, client: client}
}

// Name implements Adapter.
func (f *Feed) Name() string { return f.cfg.Name }

func (f *Feed) searchURL(title, city string, limit int) (string, error) {
	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid feed url: %w", err)
	}
	q := u.Query()
	q.Set(f.cfg.TitleParam, title)
	if city != "" {
		q.Set(f.cfg.CityParam, city)
	}
	if limit > 0 {
		q.Set(f.cfg.LimitParam, strconv.Itoa(limit))
	}
	if f.cfg.APIKey != "" {
		q.Set("api_key", f.cfg.APIKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch implements Adapter.
func (f *Feed) Fetch(ctx context.Context, title, city string, limit int) ([]types.Job, error) {
	u, err := f.searchURL(title, city, limit)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Jobs []feedJob `json:"jobs"`
	}
	if err := f.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	out := make([]types.Job, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		id := feedID(j.ID)
		if id == "" {
			continue
		}
		st := f.cfg.SourceType
		if fetch.IsEmployerATS(j.URL) {
			st = types.SourceDirectEmployer
		}
		out = append(out, types.Job{
			ID:          f.cfg.Name + ":" + id,
			Title:       j.Title,
			Company:     j.Company,
			Location:    j.Location,
			Description: fetch.HTMLToText(j.Description),
			Salary:      j.Salary,
			JobType:     j.JobType,
			Experience:  j.Experience,
			PostedDate:  j.PostedDate,
			URL:         j.URL,
			Platform:    f.cfg.Name,
			SourceType:  st,
		})
	}
	return out, nil
}

// feedID accepts numeric or string ids.
func feedID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/hotjobs"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/platforms"
	"github.com/jonathan/job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Barista", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[
			{"id":1,"title":"Barista","company":"Cafe A","location":"Melbourne VIC","url":"https://jobs.example.com/1"},
			{"id":"b2","title":"Head Barista","company":"Cafe B","location":"Melbourne VIC","url":"https://jobs.example.com/2"}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildApp_LiveOnly(t *testing.T) {
	srv := feedServer(t)
	cfg := &config.Config{
		HotJobs: hotjobs.DefaultConfig(),
		Adapters: config.AdaptersConfig{
			Feeds: []platforms.FeedConfig{{Name: "testfeed", URL: srv.URL + "/search"}},
		},
		Fetch:   config.FetchConfig{RequestsPerSecond: 100, Burst: 10},
		Scoring: config.ScoringConfig{Concurrency: 2},
		Store:   config.StoreConfig{Driver: config.StoreNone},
		Cache:   config.CacheConfig{Backend: config.CacheNone},
	}

	var stages []string
	a, err := buildApp(context.Background(), cfg, zap.NewNop(), func(e pipeline.ProgressEvent) {
		stages = append(stages, string(e.Stage))
	})
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Barista", City: "Melbourne"}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.SourceRealtime, resp.Source)
	assert.False(t, resp.IsHotJob)
	require.Len(t, resp.Jobs, 2)
	for _, j := range resp.Jobs {
		assert.Equal(t, 70, j.MatchScore, "no llm key means fallback scores")
		assert.Equal(t, "testfeed", j.Platform)
	}
	assert.Contains(t, stages, "scoring")
}

func TestBuildRouter_Order(t *testing.T) {
	cfg := config.Config{
		Adapters: config.AdaptersConfig{
			Greenhouse: config.ATSConfig{Boards: []platforms.Board{{Slug: "atlassian"}}},
			Lever:      config.ATSConfig{Boards: []platforms.Board{{Slug: "canva"}}},
			Feeds:      []platforms.FeedConfig{{Name: "seek", URL: "https://feeds.example.com"}},
		},
		Fetch: config.FetchConfig{RequestsPerSecond: 1, Burst: 1},
	}
	r, err := buildRouter(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"greenhouse", "lever", "seek"}, r.Names())
}

func TestBuildRouter_DuplicateFeed(t *testing.T) {
	cfg := config.Config{
		Adapters: config.AdaptersConfig{
			Feeds: []platforms.FeedConfig{
				{Name: "seek", URL: "https://a.example.com"},
				{Name: "seek", URL: "https://b.example.com"},
			},
		},
		Fetch: config.FetchConfig{RequestsPerSecond: 1, Burst: 1},
	}
	_, err := buildRouter(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenStore_None(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), config.StoreConfig{Driver: config.StoreNone})
	require.NoError(t, err)
	assert.Nil(t, store)
	closeStore()
}

func TestLoadProfile(t *testing.T) {
	p, err := loadProfile("")
	require.NoError(t, err)
	assert.Nil(t, p)

	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"skills":["Go"],"city":"Sydney","seniority":"senior"}`), 0o644))
	p, err = loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, p.Skills)
	assert.Equal(t, "Sydney", p.City)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = loadProfile(path)
	assert.ErrorContains(t, err, "failed to parse profile JSON")
}

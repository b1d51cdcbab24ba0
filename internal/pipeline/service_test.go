package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/hotjobs"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/platforms"
	"github.com/jonathan/job-matcher/internal/query"
	"github.com/jonathan/job-matcher/internal/scoring"
	"github.com/jonathan/job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	contentCalls atomic.Int32
	jsonCalls    atomic.Int32

	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.contentCalls.Add(1)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return flatReply, nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.jsonCalls.Add(1)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"primary": ["Machine Learning Engineer"], "secondary": ["Data Analyst"], "summary": "Widen to ML", "reasoning": "Python heavy"}`, nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

const flatReply = "SCORES:\nexperience: 80\nindustry: 80\nskills: 80\nother: 80\nLIST SUMMARY:\nGood match."

// fakeAdapter implements platforms.Adapter with a function field.
type fakeAdapter struct {
	name      string
	calls     atomic.Int32
	lastLimit atomic.Int64
	fetch     func(ctx context.Context) ([]types.Job, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context, _, _ string, limit int) ([]types.Job, error) {
	f.calls.Add(1)
	f.lastLimit.Store(int64(limit))
	return f.fetch(ctx)
}

func returning(jobs ...types.Job) func(context.Context) ([]types.Job, error) {
	return func(context.Context) ([]types.Job, error) { return jobs, nil }
}

func blocking(ctx context.Context) ([]types.Job, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeStore is a query.Store returning fixed jobs.
type fakeStore struct {
	mu    sync.Mutex
	jobs  []types.Job
	err   error
	calls int
	last  query.Filter
	limit int
}

func (s *fakeStore) Find(_ context.Context, f query.Filter, limit int) ([]types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = f
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.Job, len(s.jobs))
	copy(out, s.jobs)
	return out, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func direct(id, title, loc string) types.Job {
	return types.Job{ID: id, Title: title, Company: "Acme", Location: loc, SourceType: types.SourceDirectEmployer}
}

type harness struct {
	svc   *Service
	llm   *MockLLMClient
	store *fakeStore
	clock *fakeClock
}

func newHarness(t *testing.T, store *fakeStore, adapters ...platforms.Adapter) *harness {
	t.Helper()
	h := &harness{
		llm:   &MockLLMClient{},
		store: store,
		clock: &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	router, err := platforms.NewRouter(platforms.Options{
		Timeout:         50 * time.Millisecond,
		BreakerFailures: 5,
		BreakerOpenFor:  time.Minute,
	}, nil, adapters...)
	require.NoError(t, err)

	svc, err := New(Deps{
		Classifier: hotjobs.NewClassifier(hotjobs.DefaultConfig()),
		Expander:   hotjobs.NewExpander(h.llm, query.NewExecutor(store, nil), nil),
		Fetcher:    router,
		Scorer:     scoring.NewScorer(h.llm, nil, 4),
		Cache:      cache.NewMemory[Snapshot](cache.WithClock(h.clock.Now)),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func TestSearch_LiveFanOutWithTimedOutLeg(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(
		direct("g1", "Software Engineer", "Melbourne"),
		direct("g2", "Senior Software Engineer", "Richmond VIC"),
	)}
	lv := &fakeAdapter{name: "lever", fetch: returning(direct("l1", "Software Engineer II", "Melbourne"))}
	slow := &fakeAdapter{name: "seek", fetch: blocking}
	h := newHarness(t, &fakeStore{}, gh, lv, slow)

	resp, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Software Engineer", City: "Melbourne"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, h.store.calls, "hot title tried the store first")
	assert.Equal(t, types.SourceRealtime, resp.Source)
	assert.True(t, resp.IsHotJob)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, map[string]int{"greenhouse": 2, "lever": 1, "seek": 0}, resp.Analysis.PlatformDistribution)
	assert.Contains(t, resp.Analysis.PlatformErrors, "seek")
	for _, j := range resp.Jobs {
		assert.Equal(t, 80, j.MatchScore)
		assert.NotEqual(t, "seek", j.Platform)
	}
	assert.EqualValues(t, 3, h.llm.contentCalls.Load())
}

func TestSearch_CacheDebouncesWithinTTL(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(direct("g1", "Nurse", "Perth"))}
	lv := &fakeAdapter{name: "lever", fetch: returning(direct("l1", "Registered Nurse", "Perth"))}
	h := newHarness(t, &fakeStore{}, gh, lv)
	ctx := context.Background()
	req := types.SearchRequest{JobTitle: "Nurse", City: "Perth"}

	first, err := h.svc.Search(ctx, req, nil)
	require.NoError(t, err)
	assert.False(t, first.IsHotJob)
	assert.Equal(t, 0, h.store.calls, "cold search skips the store")

	h.clock.Advance(30 * time.Second)
	second, err := h.svc.Search(ctx, types.SearchRequest{JobTitle: "NURSE", City: "perth"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, gh.calls.Load())
	assert.EqualValues(t, 1, lv.calls.Load())
	assert.EqualValues(t, 2, h.llm.contentCalls.Load())

	h.clock.Advance(31 * time.Second)
	_, err = h.svc.Search(ctx, req, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gh.calls.Load(), "stale entry triggers a fresh fetch")
	assert.EqualValues(t, 4, h.llm.contentCalls.Load())
}

func TestSearch_HotPathDataScientistSydney(t *testing.T) {
	store := &fakeStore{jobs: []types.Job{
		direct("s1", "Data Analyst", "Penrith"),
		direct("s2", "Senior Data Scientist", "Sydney"),
		direct("s3", "Machine Learning Engineer", "Parramatta"),
		func() types.Job {
			j := direct("s4", "Data Scientist II", "Sydney")
			j.MatchScore = 90
			return j
		}(),
	}}
	gh := &fakeAdapter{name: "greenhouse", fetch: returning()}
	h := newHarness(t, store, gh)

	resp, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Data Scientist", City: "Sydney"}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.SourceHotJobsDatabase, resp.Source)
	assert.True(t, resp.IsHotJob)
	assert.Zero(t, gh.calls.Load(), "live sources untouched")
	assert.EqualValues(t, 1, h.llm.jsonCalls.Load())
	assert.EqualValues(t, 3, h.llm.contentCalls.Load(), "pre-scored job is not rescored")

	require.Len(t, h.store.last.AllOf, 1)
	assert.Equal(t, query.FieldLocation, h.store.last.AllOf[0].Field)
	assert.Contains(t, h.store.last.AllOf[0].Pattern, "Penrith")
	assert.Len(t, h.store.last.AnyOf, 3)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, []string{"Data Scientist", "Machine Learning Engineer", "Data Analyst"}, resp.Analysis.ExpandedTitles)
	assert.Equal(t, "Widen to ML", resp.Analysis.Summary)
	assert.Nil(t, resp.Analysis.PlatformDistribution)

	scores := map[string]int{}
	var order []string
	for _, j := range resp.Jobs {
		scores[j.Title] = j.MatchScore
		order = append(order, j.ID)
	}
	assert.Equal(t, 90, scores["Data Scientist II"])
	assert.Equal(t, 80, scores["Senior Data Scientist"])
	assert.Equal(t, 77, scores["Machine Learning Engineer"], "primary tier -3")
	// Penrith is fringe: 80*0.85 = 68 per sub-score, then the secondary tier -5.
	assert.Equal(t, 63, scores["Data Analyst"])
	assert.Equal(t, []string{"s4", "s2", "s3", "s1"}, order)
}

func TestSearch_HotPathFallsBackToLiveWhenStoreFails(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(direct("g1", "Data Scientist", "Sydney"))}
	h := newHarness(t, store, gh)

	resp, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Data Scientist", City: "Sydney"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.SourceRealtime, resp.Source)
	assert.True(t, resp.IsHotJob)
	assert.Equal(t, 1, resp.Total)
	assert.Nil(t, resp.Analysis, "single source is not a multi-source fan-out")
}

func TestSearch_AllSourcesFailed(t *testing.T) {
	a := &fakeAdapter{name: "greenhouse", fetch: func(context.Context) ([]types.Job, error) { return nil, errors.New("502") }}
	b := &fakeAdapter{name: "lever", fetch: blocking}
	h := newHarness(t, &fakeStore{}, a, b)

	resp, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Chef", City: "Perth"}, nil)
	assert.Nil(t, resp)

	var agg *AggregateFailure
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Sources, 2)
	assert.Contains(t, err.Error(), "every job source failed")
}

func TestSearch_UnsupportedPlatform(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning()}
	h := newHarness(t, &fakeStore{}, gh)

	_, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Chef", City: "Perth", Platform: "myspace"}, nil)

	var unsupported *platforms.UnsupportedSourceError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, []string{"greenhouse"}, unsupported.Available)
	assert.Zero(t, gh.calls.Load())
}

func TestSearch_PlatformBypassesCacheAndHotPath(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(direct("g1", "Software Engineer", "Sydney"))}
	lv := &fakeAdapter{name: "lever", fetch: returning(direct("l1", "Software Engineer", "Sydney"))}
	h := newHarness(t, &fakeStore{}, gh, lv)
	req := types.SearchRequest{JobTitle: "Software Engineer", City: "Sydney", Platform: "Lever"}

	for i := 0; i < 2; i++ {
		resp, err := h.svc.Search(context.Background(), req, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
		assert.Nil(t, resp.Analysis)
	}
	assert.EqualValues(t, 2, lv.calls.Load())
	assert.Zero(t, gh.calls.Load())
	assert.Zero(t, h.store.calls)
}

func TestSearch_PlatformFailureIsAggregateFailure(t *testing.T) {
	lv := &fakeAdapter{name: "lever", fetch: func(context.Context) ([]types.Job, error) { return nil, errors.New("boom") }}
	h := newHarness(t, &fakeStore{}, lv)

	_, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Chef", City: "Perth", Platform: "lever"}, nil)

	var agg *AggregateFailure
	require.ErrorAs(t, err, &agg)
	assert.Contains(t, agg.Sources["lever"], "boom")
}

func TestSearch_ValidationError(t *testing.T) {
	h := newHarness(t, &fakeStore{})

	_, err := h.svc.Search(context.Background(), types.SearchRequest{City: "Perth"}, nil)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "jobTitle", ve.Field)
}

func TestSearch_Pagination(t *testing.T) {
	var jobs []types.Job
	for i := 0; i < 7; i++ {
		jobs = append(jobs, direct(string(rune('a'+i)), "Welder", "Perth"))
	}
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(jobs...)}
	h := newHarness(t, &fakeStore{}, gh)

	resp, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Welder", City: "Perth", Limit: 3, Page: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 3, resp.PageSize)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "g", resp.Jobs[0].ID)
}

func TestSearch_PageBeyondResults(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantLimit int64
	}{
		{"one past the last page", 2, 20, 40},
		{"max int page", math.MaxInt, 20, types.MaxLiveLimit},
		{"limit above path max with large page", 1 << 40, 1000, types.MaxLiveLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gh := &fakeAdapter{name: "greenhouse", fetch: returning(direct("w1", "Welder", "Perth"), direct("w2", "Welder", "Perth"))}
			h := newHarness(t, &fakeStore{}, gh)

			var resp *types.SearchResponse
			var err error
			require.NotPanics(t, func() {
				resp, err = h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Welder", City: "Perth", Page: tt.page, Limit: tt.limit}, nil)
			})
			require.NoError(t, err)
			assert.Empty(t, resp.Jobs)
			assert.Equal(t, 2, resp.Total)
			assert.Equal(t, 1, resp.TotalPages)
			assert.Equal(t, tt.wantLimit, gh.lastLimit.Load())
		})
	}
}

func TestSearch_HotPathMaxIntPage(t *testing.T) {
	store := &fakeStore{jobs: []types.Job{direct("s1", "Software Engineer", "Sydney NSW")}}
	h := newHarness(t, store)

	var resp *types.SearchResponse
	var err error
	require.NotPanics(t, func() {
		resp, err = h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Software Engineer", City: "Sydney", Page: math.MaxInt}, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, types.SourceHotJobsDatabase, resp.Source)
	assert.Empty(t, resp.Jobs)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, types.MaxStoreLimit, store.limit)
}

func TestScore_SuppliedJobsOnly(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning()}
	h := newHarness(t, &fakeStore{}, gh)
	h.llm.GenerateContentFunc = func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		if strings.Contains(prompt, "Title: Barista") {
			return "", errors.New("quota exceeded")
		}
		return flatReply, nil
	}

	resp, err := h.svc.Score(context.Background(), types.ScoreRequest{
		Jobs: []types.Job{
			direct("1", "Barista", "Perth"),
			direct("2", "Head Chef", "Perth"),
			direct("2", "Head Chef duplicate", "Perth"),
		},
		JobTitle: "Chef",
		City:     "Perth",
		IsHotJob: true,
		Profile:  &types.Profile{Skills: []string{"French cuisine"}},
	})
	require.NoError(t, err)

	assert.Zero(t, gh.calls.Load())
	assert.Equal(t, types.SourceHotJobsDatabase, resp.Source)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, "2", resp.Jobs[0].ID)
	assert.Equal(t, 80, resp.Jobs[0].MatchScore)
	assert.Equal(t, scoring.FallbackScore, resp.Jobs[1].MatchScore)
}

func TestScore_DropsJobsWithoutIdentity(t *testing.T) {
	h := newHarness(t, &fakeStore{})

	resp, err := h.svc.Score(context.Background(), types.ScoreRequest{Jobs: []types.Job{
		direct("1", "Head Chef", "Perth"),
		{ID: "3"},
		{Title: "no id"},
		{ID: "   ", Title: "blank id"},
	}})
	require.NoError(t, err)

	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "1", resp.Jobs[0].ID)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, int32(1), h.llm.contentCalls.Load())
}

func TestScore_OnlyInvalidJobs(t *testing.T) {
	h := newHarness(t, &fakeStore{})

	resp, err := h.svc.Score(context.Background(), types.ScoreRequest{Jobs: []types.Job{{ID: "3"}}})
	require.NoError(t, err)
	assert.Empty(t, resp.Jobs)
	assert.Zero(t, h.llm.contentCalls.Load())
}

func TestSearch_ProgressEvents(t *testing.T) {
	gh := &fakeAdapter{name: "greenhouse", fetch: returning(direct("g1", "Nurse", "Perth"))}
	h := newHarness(t, &fakeStore{}, gh)

	var stages []Stage
	h.svc.onProgress = func(e ProgressEvent) { stages = append(stages, e.Stage) }

	_, err := h.svc.Search(context.Background(), types.SearchRequest{JobTitle: "Nurse", City: "Perth"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageReceived, StageClassified, StageFetching, StageAggregated, StageScoring, StageAssembled, StageCached}, stages)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

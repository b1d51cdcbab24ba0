// Package pipeline runs a job search end to end: classification, retrieval
// from the store or live sources, scoring, ranking and caching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-matcher/internal/cache"
	"github.com/jonathan/job-matcher/internal/hotjobs"
	"github.com/jonathan/job-matcher/internal/platforms"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
)

// Classifier decides whether a search takes the store path.
type Classifier interface {
	IsHot(title, city string) bool
}

// Expander retrieves hot jobs for a profile.
type Expander interface {
	Expand(ctx context.Context, profile types.Profile, limit int) (*hotjobs.Expansion, error)
}

// Fetcher queries the live sources.
type Fetcher interface {
	FetchAll(ctx context.Context, title, city string, limit int) *platforms.FanOutResult
	FetchOne(ctx context.Context, source, title, city string, limit int) ([]types.Job, error)
	Has(source string) bool
	Names() []string
}

// Scorer enriches jobs with match scores.
type Scorer interface {
	ScoreAll(ctx context.Context, jobs []types.Job, profile types.Profile) []types.Job
}

// Snapshot is the cached outcome of one search before pagination.
type Snapshot struct {
	Jobs     []types.Job     `json:"jobs"`
	Source   string          `json:"source"`
	IsHotJob bool            `json:"isHotJob"`
	Analysis *types.Analysis `json:"analysis,omitempty"`
	// Fetched is the retrieval limit the snapshot was built with.
	Fetched int `json:"fetched"`
}

// covers reports whether the snapshot holds every job req's page could need.
func (s Snapshot) covers(req types.SearchRequest) bool {
	return len(s.Jobs) < s.Fetched || s.Fetched >= fetchLimit(req, pathMax(s.Source))
}

// Deps are the collaborators of a Service. Expander and Cache are optional.
type Deps struct {
	Classifier Classifier
	Expander   Expander
	Fetcher    Fetcher
	Scorer     Scorer
	Cache      cache.Cache[Snapshot]
	Logger     *zap.Logger
	// Timeout bounds one request end to end. Zero means no bound beyond the caller's context.
	Timeout    time.Duration
	OnProgress ProgressCallback
}

// Service runs searches.
type Service struct {
	classifier Classifier
	expander   Expander
	fetcher    Fetcher
	scorer     Scorer
	cache      cache.Cache[Snapshot]
	log        *zap.Logger
	timeout    time.Duration
	onProgress ProgressCallback
}

// New validates deps and returns a Service.
func New(d Deps) (*Service, error) {
	if d.Classifier == nil || d.Fetcher == nil || d.Scorer == nil {
		return nil, fmt.Errorf("pipeline requires a classifier, a fetcher and a scorer")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.Nop[Snapshot]{}
	}
	return &Service{
		classifier: d.Classifier,
		expander:   d.Expander,
		fetcher:    d.Fetcher,
		scorer:     d.Scorer,
		cache:      d.Cache,
		log:        d.Logger,
		timeout:    d.Timeout,
		onProgress: d.OnProgress,
	}, nil
}

// Search returns one page of ranked jobs for req. profile may be nil, in
// which case one is derived from the title and city. Errors are
// *ValidationError, *platforms.UnsupportedSourceError or *AggregateFailure.
func (s *Service) Search(ctx context.Context, req types.SearchRequest, profile *types.Profile) (*types.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if req.Platform != "" && !s.fetcher.Has(req.Platform) {
		return nil, &platforms.UnsupportedSourceError{Source: req.Platform, Available: s.fetcher.Names()}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.With(zap.String("title", req.JobTitle), zap.String("city", req.City), zap.String("platform", req.Platform))
	s.emit(StageReceived, cache.Key(req.JobTitle, req.City), 0)

	// Requests pinned to one platform bypass the cache.
	useCache := req.Platform == ""
	if useCache {
		if snap, ok := s.cache.Get(ctx, req.JobTitle, req.City); ok && snap.covers(req) {
			log.Debug("search served from cache", zap.Int("jobs", len(snap.Jobs)))
			return Assemble(snap.Jobs, req.Page, pageSize(req, snap.Source), snap.Source, snap.IsHotJob, snap.Analysis), nil
		}
	}

	p := profileFor(req, profile)
	hot := s.classifier.IsHot(req.JobTitle, req.City)
	s.emit(StageClassified, pathName(hot), 0)

	var snap *Snapshot
	if hot && req.Platform == "" && s.expander != nil {
		snap = s.searchHot(ctx, log, req, p)
	}
	if snap == nil {
		var err error
		snap, err = s.searchLive(ctx, log, req, p)
		if err != nil {
			s.emit(StageError, err.Error(), 0)
			log.Error("search failed", zap.Error(err))
			return nil, err
		}
	}
	snap.IsHotJob = hot

	resp := Assemble(snap.Jobs, req.Page, pageSize(req, snap.Source), snap.Source, hot, snap.Analysis)
	s.emit(StageAssembled, snap.Source, resp.Total)

	if useCache {
		s.cache.Put(ctx, req.JobTitle, req.City, *snap)
		s.emit(StageCached, cache.Key(req.JobTitle, req.City), resp.Total)
	}
	log.Info("search complete",
		zap.Bool("hot", hot),
		zap.String("source", snap.Source),
		zap.Int("total", resp.Total))
	return resp, nil
}

// searchHot serves the search from the store. It returns nil when the store
// yields nothing so the caller falls back to the live path.
func (s *Service) searchHot(ctx context.Context, log *zap.Logger, req types.SearchRequest, p types.Profile) *Snapshot {
	limit := fetchLimit(req, types.MaxStoreLimit)
	s.emit(StageFetching, "store", 0)

	exp, err := s.expander.Expand(ctx, p, limit)
	if err != nil {
		log.Warn("hot store search failed, falling back to live sources", zap.Error(err))
		return nil
	}
	if len(exp.Jobs) == 0 {
		log.Info("hot store search returned no jobs, falling back to live sources", zap.Strings("titles", exp.Titles()))
		return nil
	}
	s.emit(StageAggregated, "store", len(exp.Jobs))

	// Stored jobs may already carry a score; only unscored ones go to the scorer.
	var pending []types.Job
	var at []int
	for i, j := range exp.Jobs {
		if j.MatchScore == 0 {
			pending = append(pending, j)
			at = append(at, i)
		}
	}
	jobs := exp.Jobs
	if len(pending) > 0 {
		s.emit(StageScoring, "store", len(pending))
		scored := s.scorer.ScoreAll(ctx, pending, p)
		exp.Penalise(scored)
		for k, i := range at {
			jobs[i] = scored[k]
		}
	}
	Rank(jobs)

	return &Snapshot{
		Jobs:   jobs,
		Source: types.SourceHotJobsDatabase,
		Analysis: &types.Analysis{
			ExpandedTitles: exp.Titles(),
			Summary:        exp.Summary,
			Reasoning:      exp.Reasoning,
		},
		Fetched: limit,
	}
}

func (s *Service) searchLive(ctx context.Context, log *zap.Logger, req types.SearchRequest, p types.Profile) (*Snapshot, error) {
	limit := fetchLimit(req, types.MaxLiveLimit)
	analysis := &types.Analysis{}

	var jobs []types.Job
	if req.Platform != "" {
		s.emit(StageFetching, req.Platform, 0)
		var err error
		jobs, err = s.fetcher.FetchOne(ctx, req.Platform, req.JobTitle, req.City, limit)
		if err != nil {
			var unsupported *platforms.UnsupportedSourceError
			if errors.As(err, &unsupported) {
				return nil, err
			}
			return nil, &AggregateFailure{
				Reason:  "platform search failed",
				Sources: map[string]string{req.Platform: err.Error()},
				Cause:   err,
			}
		}
	} else {
		s.emit(StageFetching, strings.Join(s.fetcher.Names(), ","), 0)
		res := s.fetcher.FetchAll(ctx, req.JobTitle, req.City, limit)
		if res.AllFailed() {
			return nil, &AggregateFailure{Reason: "every job source failed", Sources: res.ErrorMessages()}
		}
		jobs = res.Jobs
		if len(res.Counts) > 1 {
			analysis.PlatformDistribution = res.Counts
		}
		analysis.PlatformErrors = res.ErrorMessages()
		for name, msg := range analysis.PlatformErrors {
			log.Warn("job source failed", zap.String("source", name), zap.String("error", msg))
		}
	}
	s.emit(StageAggregated, "live", len(jobs))

	s.emit(StageScoring, "live", len(jobs))
	scored := s.scorer.ScoreAll(ctx, jobs, p)
	Rank(scored)

	if analysis.PlatformDistribution == nil && analysis.PlatformErrors == nil {
		analysis = nil
	}
	return &Snapshot{Jobs: scored, Source: types.SourceRealtime, Analysis: analysis, Fetched: limit}, nil
}

// Score ranks caller-supplied jobs with the match scorer only.
func (s *Service) Score(ctx context.Context, req types.ScoreRequest) (*types.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	jobs := make([]types.Job, 0, len(req.Jobs))
	for _, j := range req.Jobs {
		if err := j.Validate(); err != nil {
			s.log.Debug("dropping invalid job", zap.String("job_id", j.ID), zap.Error(err))
			continue
		}
		jobs = append(jobs, j)
	}
	jobs = types.DedupByID(jobs)

	p := profileFor(types.SearchRequest{JobTitle: req.JobTitle, City: req.City}, req.Profile)
	scored := s.scorer.ScoreAll(ctx, jobs, p)
	Rank(scored)

	source := types.SourceRealtime
	if req.IsHotJob {
		source = types.SourceHotJobsDatabase
	}
	s.log.Info("scored supplied jobs", zap.Int("jobs", len(scored)), zap.Bool("hot", req.IsHotJob))
	return Assemble(scored, req.Page, min(req.Limit, types.MaxStoreLimit), source, req.IsHotJob, nil), nil
}

func (s *Service) emit(stage Stage, msg string, jobs int) {
	if s.onProgress != nil {
		s.onProgress(ProgressEvent{Stage: stage, Message: msg, Jobs: jobs})
	}
}

// profileFor returns a copy of profile whose target title and city are the
// searched ones.
func profileFor(req types.SearchRequest, profile *types.Profile) types.Profile {
	if profile == nil {
		return types.ProfileFromSearch(req.JobTitle, req.City)
	}
	p := *profile
	if t := strings.TrimSpace(req.JobTitle); t != "" && !strings.EqualFold(p.TargetTitle(), t) {
		p.JobTitles = append([]string{t}, p.JobTitles...)
	}
	if c := strings.TrimSpace(req.City); c != "" {
		p.City = c
	}
	return p
}

// fetchLimit is the number of jobs to retrieve so the requested page can be
// filled, bounded by the path maximum.
func fetchLimit(req types.SearchRequest, max int) int {
	if req.Limit <= 0 || req.Page <= 0 {
		return min(types.DefaultLimit, max)
	}
	if req.Page > max/req.Limit {
		return max
	}
	return min(req.Page*req.Limit, max)
}

// pathMax is the retrieval bound of the path that produced source.
func pathMax(source string) int {
	if source == types.SourceHotJobsDatabase {
		return types.MaxStoreLimit
	}
	return types.MaxLiveLimit
}

func pageSize(req types.SearchRequest, source string) int {
	return req.ClampLimit(pathMax(source))
}

func pathName(hot bool) string {
	if hot {
		return "hot"
	}
	return "live"
}

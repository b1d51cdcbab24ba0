// Package platforms fans live searches out to the registered job source
// adapters and merges what they return.
package platforms

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-matcher/internal/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Adapter is one live job source.
type Adapter interface {
	// Name is the registry key, also reported as the job platform.
	Name() string
	// Fetch returns up to limit jobs matching title in city.
	Fetch(ctx context.Context, title, city string, limit int) ([]types.Job, error)
}

// Options tunes per-leg isolation.
type Options struct {
	// Timeout bounds each adapter call. Zero means no per-leg timeout.
	Timeout time.Duration
	// BreakerFailures is the consecutive failure count that opens a source's breaker.
	BreakerFailures uint32
	// BreakerOpenFor is how long an open breaker rejects calls before probing.
	BreakerOpenFor time.Duration
}

// DefaultOptions returns the production leg settings.
func DefaultOptions() Options {
	return Options{
		Timeout:         10 * time.Second,
		BreakerFailures: 3,
		BreakerOpenFor:  time.Minute,
	}
}

// FanOutResult is the merged outcome of a fan-out.
type FanOutResult struct {
	Jobs   []types.Job
	Counts map[string]int
	Errors map[string]error
}

// AllFailed reports whether no leg succeeded.
func (r *FanOutResult) AllFailed() bool {
	return len(r.Counts) > 0 && len(r.Errors) == len(r.Counts)
}

// ErrorMessages returns the per-source errors as strings.
func (r *FanOutResult) ErrorMessages() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for k, v := range r.Errors {
		out[k] = v.Error()
	}
	return out
}

type leg struct {
	adapter Adapter
	breaker *gobreaker.CircuitBreaker
}

// Router owns the adapter registry. Registration order is merge order.
type Router struct {
	legs    []leg
	byName  map[string]int
	timeout time.Duration
	log     *zap.Logger
}

// NewRouter registers adapters in order. Duplicate names are rejected.
func NewRouter(opts Options, log *zap.Logger, adapters ...Adapter) (*Router, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = DefaultOptions().BreakerFailures
	}
	r := &Router{
		byName:  make(map[string]int, len(adapters)),
		timeout: opts.Timeout,
		log:     log,
	}
	for _, a := range adapters {
		name := strings.ToLower(a.Name())
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate platform adapter %q", name)
		}
		failures := opts.BreakerFailures
		r.byName[name] = len(r.legs)
		r.legs = append(r.legs, leg{
			adapter: a,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        name,
				MaxRequests: 1,
				Timeout:     opts.BreakerOpenFor,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= failures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.Info("platform breaker state changed",
						zap.String("platform", name),
						zap.String("from", from.String()),
						zap.String("to", to.String()))
				},
			}),
		})
	}
	return r, nil
}

// Names returns the registered adapter names, sorted.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether source is registered.
func (r *Router) Has(source string) bool {
	_, ok := r.byName[strings.ToLower(strings.TrimSpace(source))]
	return ok
}

// FetchAll queries every adapter concurrently and waits for all of them. A
// failing leg contributes no jobs and an entry in Errors; it never cancels
// or fails its siblings.
func (r *Router) FetchAll(ctx context.Context, title, city string, limit int) *FanOutResult {
	slots := make([][]types.Job, len(r.legs))
	errs := make([]error, len(r.legs))

	var g errgroup.Group
	for i := range r.legs {
		g.Go(func() error {
			slots[i], errs[i] = r.run(ctx, r.legs[i], title, city, limit)
			return nil
		})
	}
	_ = g.Wait()

	res := &FanOutResult{
		Counts: make(map[string]int, len(r.legs)),
		Errors: make(map[string]error),
	}
	var merged []types.Job
	for i, l := range r.legs {
		name := strings.ToLower(l.adapter.Name())
		res.Counts[name] = len(slots[i])
		if errs[i] != nil {
			res.Errors[name] = errs[i]
			continue
		}
		merged = append(merged, slots[i]...)
	}
	res.Jobs = types.DedupByID(merged)

	r.log.Info("platform fan-out complete",
		zap.String("title", title),
		zap.String("city", city),
		zap.Int("jobs", len(res.Jobs)),
		zap.Any("counts", res.Counts),
		zap.Int("failed", len(res.Errors)))
	return res
}

// FetchOne queries a single adapter by name.
func (r *Router) FetchOne(ctx context.Context, source, title, city string, limit int) ([]types.Job, error) {
	idx, ok := r.byName[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, &UnsupportedSourceError{Source: source, Available: r.Names()}
	}
	jobs, err := r.run(ctx, r.legs[idx], title, city, limit)
	if err != nil {
		return nil, err
	}
	return types.DedupByID(jobs), nil
}

// run executes one leg with its own timeout, breaker and panic guard.
func (r *Router) run(ctx context.Context, l leg, title, city string, limit int) (jobs []types.Job, err error) {
	name := strings.ToLower(l.adapter.Name())
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := l.breaker.Execute(func() (res interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("adapter panic: %v", p)
			}
		}()
		return l.adapter.Fetch(ctx, title, city, limit)
	})
	if err != nil {
		r.log.Warn("platform adapter failed",
			zap.String("platform", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &UpstreamError{Source: name, Cause: err}
	}

	raw, _ := out.([]types.Job)
	jobs = make([]types.Job, 0, len(raw))
	for i := range raw {
		j := raw[i]
		if j.Platform == "" {
			j.Platform = name
		}
		if err := j.Validate(); err != nil {
			r.log.Debug("dropping invalid job", zap.String("platform", name), zap.Error(err))
			continue
		}
		jobs = append(jobs, j)
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	r.log.Debug("platform adapter returned",
		zap.String("platform", name),
		zap.Int("jobs", len(jobs)),
		zap.Duration("elapsed", time.Since(start)))
	return jobs, nil
}

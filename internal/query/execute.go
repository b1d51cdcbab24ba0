package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
)

// Store is a persistent job store that can evaluate a Filter. Results must be
// ordered by recency, newest first, and hold at most limit jobs.
type Store interface {
	Find(ctx context.Context, f Filter, limit int) ([]types.Job, error)
}

// StoreError wraps a failure while executing a filter against the store.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Executor runs filters against a Store.
type Executor struct {
	store Store
	log   *zap.Logger
}

// NewExecutor returns an executor backed by store.
func NewExecutor(store Store, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{store: store, log: log}
}

// Execute runs f with the given limit and deduplicates the result by id,
// preserving store order. A degenerate filter yields no jobs and no error.
// Store failures are logged and returned as *StoreError together with an
// empty result, so callers may treat them as "nothing found".
func (e *Executor) Execute(ctx context.Context, f Filter, limit int) ([]types.Job, error) {
	f, err := Optimize(f)
	if errors.Is(err, ErrDegenerateFilter) {
		e.log.Debug("skipping degenerate filter")
		return []types.Job{}, nil
	}
	if limit <= 0 {
		limit = types.DefaultLimit
	}
	if limit > types.MaxStoreLimit {
		limit = types.MaxStoreLimit
	}
	if e.store == nil {
		return []types.Job{}, &StoreError{Op: "find", Cause: errors.New("no store configured")}
	}

	jobs, err := e.store.Find(ctx, f, limit)
	if err != nil {
		e.log.Warn("job store query failed", zap.Error(err), zap.Int("limit", limit))
		return []types.Job{}, &StoreError{Op: "find", Cause: err}
	}

	valid := jobs[:0]
	for i := range jobs {
		if err := jobs[i].Validate(); err != nil {
			e.log.Debug("dropping invalid stored job", zap.String("id", jobs[i].ID), zap.Error(err))
			continue
		}
		valid = append(valid, jobs[i])
	}
	return types.DedupByID(valid), nil
}

// Search builds the filter for keywords in city and executes it.
func (e *Executor) Search(ctx context.Context, keywords []string, city string, limit int) ([]types.Job, error) {
	f, err := Build(keywords, city)
	if err != nil && !errors.Is(err, ErrDegenerateFilter) {
		return []types.Job{}, err
	}
	return e.Execute(ctx, f, limit)
}

package query

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	jobs      []types.Job
	err       error
	calls     int
	lastLimit int
	lastF     Filter
}

func (s *fakeStore) Find(_ context.Context, f Filter, limit int) ([]types.Job, error) {
	s.calls++
	s.lastF = f
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.Job, len(s.jobs))
	copy(out, s.jobs)
	return out, nil
}

func TestExecute_DedupPreservesOrder(t *testing.T) {
	store := &fakeStore{jobs: []types.Job{
		{ID: "3", Title: "Newest"},
		{ID: "1", Title: "Middle"},
		{ID: "3", Title: "Older copy of newest"},
		{ID: "2", Title: "Oldest"},
	}}
	ex := NewExecutor(store, nil)

	jobs, err := ex.Search(context.Background(), []string{"Engineer"}, "Sydney", 50)
	require.NoError(t, err)

	require.Len(t, jobs, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})
	assert.Equal(t, "Newest", jobs[0].Title)
	assert.Equal(t, 50, store.lastLimit)
	assert.True(t, store.lastF.ExcludeInactive)
}

func TestExecute_DropsInvalidJobs(t *testing.T) {
	store := &fakeStore{jobs: []types.Job{{ID: "", Title: "No ID"}, {ID: "1", Title: "Valid"}}}
	ex := NewExecutor(store, nil)

	jobs, err := ex.Search(context.Background(), []string{"Engineer"}, "", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "1", jobs[0].ID)
	assert.Equal(t, "Unknown", jobs[0].Company)
}

func TestExecute_ClampsLimit(t *testing.T) {
	store := &fakeStore{}
	ex := NewExecutor(store, nil)

	_, err := ex.Search(context.Background(), []string{"Engineer"}, "", 5000)
	require.NoError(t, err)
	assert.Equal(t, types.MaxStoreLimit, store.lastLimit)

	_, err = ex.Search(context.Background(), []string{"Engineer"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultLimit, store.lastLimit)
}

func TestExecute_DegenerateFilterSkipsStore(t *testing.T) {
	store := &fakeStore{jobs: []types.Job{{ID: "1", Title: "x"}}}
	ex := NewExecutor(store, nil)

	jobs, err := ex.Search(context.Background(), nil, "", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, 0, store.calls)
}

func TestExecute_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	ex := NewExecutor(store, nil)

	jobs, err := ex.Search(context.Background(), []string{"Engineer"}, "Perth", 10)

	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "find", storeErr.Op)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExecute_NoStore(t *testing.T) {
	ex := NewExecutor(nil, nil)
	_, err := ex.Search(context.Background(), []string{"Engineer"}, "Perth", 10)

	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

//go:build integration

package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jonathan/job-matcher/internal/query"
)

func TestIntegration_Find(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping integration test")
	}
	ctx := context.Background()

	store, err := Connect(ctx, uri, "jobmatch_test", "hot_jobs_it")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()
	defer func() { _ = store.collection.Drop(ctx) }()

	inactive := false
	now := time.Now()
	_, err = store.collection.InsertMany(ctx, []any{
		jobDocument{ID: "a", Title: "Data Scientist", Location: "Parramatta NSW", UpdatedAt: now.Add(-time.Hour)},
		jobDocument{ID: "b", Title: "Lead Data Scientist", Location: "Penrith", UpdatedAt: now},
		jobDocument{ID: "c", Title: "Data Scientist", Location: "Sydney", Active: &inactive, UpdatedAt: now},
		jobDocument{ID: "d", Title: "Data Scientist", Location: "Hobart", UpdatedAt: now},
	})
	if err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	f, _ := query.Build([]string{"data scientist"}, "sydney")
	jobs, err := store.Find(ctx, f, 10)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "b" || jobs[1].ID != "a" {
		t.Errorf("jobs = %+v, want [b a]", jobs)
	}
}

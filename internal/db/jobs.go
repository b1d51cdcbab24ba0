package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-matcher/internal/query"
	"github.com/jonathan/job-matcher/internal/types"
)

// -----------------------------------------------------------------------------
// Job Store Methods
// -----------------------------------------------------------------------------

// columns maps filter fields onto table columns.
var columns = map[string]string{
	query.FieldTitle:    "title",
	query.FieldLocation: "location",
}

const jobColumns = `id, title, COALESCE(company, ''), COALESCE(location, ''),
	COALESCE(description, ''), COALESCE(salary, ''), COALESCE(job_type, ''),
	COALESCE(experience, ''), COALESCE(posted_date, ''), COALESCE(url, ''),
	COALESCE(platform, ''), COALESCE(source_type, ''), COALESCE(match_score, 0),
	sub_scores, COALESCE(match_analysis, ''), match_highlights,
	COALESCE(summary, ''), COALESCE(detailed_summary, ''), key_requirements`

// compileFind turns a filter into a parameterised SELECT. Patterns are matched
// with the case-insensitive POSIX operator and passed as arguments.
func compileFind(table string, f query.Filter, limit int) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.AnyOf) > 0 {
		ors := make([]string, 0, len(f.AnyOf))
		for _, c := range f.AnyOf {
			col, ok := columns[c.Field]
			if !ok {
				return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
			}
			ors = append(ors, col+" ~* "+param(c.Pattern))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	for _, c := range f.AllOf {
		col, ok := columns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		where = append(where, col+" ~* "+param(c.Pattern))
	}
	if f.ExcludeInactive {
		where = append(where, "active IS DISTINCT FROM false")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(jobColumns)
	sb.WriteString(" FROM ")
	sb.WriteString(pgx.Identifier{table}.Sanitize())
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY updated_at DESC NULLS LAST LIMIT ")
	sb.WriteString(param(limit))
	return sb.String(), args, nil
}

// Find runs f against the job table, newest first.
func (db *DB) Find(ctx context.Context, f query.Filter, limit int) ([]types.Job, error) {
	sql, args, err := compileFind(db.table, f, limit)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (types.Job, error) {
	var (
		j                                      types.Job
		sourceType                             string
		subScoresJSON, highlightsJSON, reqJSON []byte
	)
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Description,
		&j.Salary, &j.JobType, &j.Experience, &j.PostedDate, &j.URL,
		&j.Platform, &sourceType, &j.MatchScore, &subScoresJSON, &j.MatchAnalysis,
		&highlightsJSON, &j.Summary, &j.DetailedSummary, &reqJSON)
	if err != nil {
		return types.Job{}, fmt.Errorf("failed to scan job: %w", err)
	}
	j.SourceType = types.SourceType(sourceType)

	// Parse JSONB fields
	if subScoresJSON != nil {
		var s types.SubScores
		if json.Unmarshal(subScoresJSON, &s) == nil {
			j.SubScores = &s
		}
	}
	if highlightsJSON != nil {
		_ = json.Unmarshal(highlightsJSON, &j.MatchHighlights)
	}
	if reqJSON != nil {
		_ = json.Unmarshal(reqJSON, &j.KeyRequirements)
	}
	return j, nil
}

// indexStatements returns the DDL for the indexes the query builder relies on.
func indexStatements(table string) []string {
	t := pgx.Identifier{table}.Sanitize()
	name := func(suffix string) string {
		return pgx.Identifier{table + "_" + suffix}.Sanitize()
	}
	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (title, location)", name("title_location_idx"), t),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (location, title)", name("location_title_idx"), t),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (to_tsvector('simple', title))", name("title_text_idx"), t),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (active, updated_at DESC)", name("active_updated_idx"), t),
	}
}

// EnsureIndexes creates the job table indexes if they are missing.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements(db.table) {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

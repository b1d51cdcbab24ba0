package pipeline

import (
	"cmp"
	"slices"

	"github.com/jonathan/job-matcher/internal/types"
)

// Rank orders jobs by match score, highest first. Ties keep their order.
func Rank(jobs []types.Job) {
	slices.SortStableFunc(jobs, func(a, b types.Job) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
}

// Assemble builds the response envelope for one page of ranked jobs. total
// counts every ranked job; only the requested page is returned.
func Assemble(ranked []types.Job, page, pageSize int, source string, isHot bool, analysis *types.Analysis) *types.SearchResponse {
	if pageSize <= 0 {
		pageSize = types.DefaultLimit
	}
	if page < 1 {
		page = types.DefaultPage
	}
	total := len(ranked)

	// Compare before multiplying so an oversized page cannot overflow.
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := start + min(pageSize, total-start)

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	jobs := make([]types.Job, end-start)
	copy(jobs, ranked[start:end])

	return &types.SearchResponse{
		Jobs:       jobs,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Source:     source,
		IsHotJob:   isHot,
		Analysis:   analysis,
	}
}

// ErrorEnvelope is the body returned when the pipeline fails as a whole.
func ErrorEnvelope(message string, err error) types.ErrorResponse {
	resp := types.ErrorResponse{Error: message, Source: types.SourceError}
	if err != nil {
		resp.Details = err.Error()
	}
	return resp
}

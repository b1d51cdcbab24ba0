package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(pipeline.ProgressEvent{Stage: pipeline.StageFetching, Message: "greenhouse,lever"})
	p.PrintProgress(pipeline.ProgressEvent{Stage: pipeline.StageScoring, Message: "live", Jobs: 12})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "fetching")
	assert.NotContains(t, lines[0], "jobs)")
	assert.Contains(t, lines[1], "(12 jobs)")
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	jobs := make([]types.Job, 7)
	for i := range jobs {
		jobs[i] = types.Job{
			Title:      "Data Scientist",
			Company:    "Acme",
			Location:   "Sydney NSW",
			Platform:   "lever",
			MatchScore: 90 - i,
		}
	}
	jobs[0].SubScores = &types.SubScores{Experience: 88, Industry: 80, Skills: 91, Other: 75}

	p.PrintResults(&types.SearchResponse{
		Jobs: jobs, Total: 30, Page: 1, PageSize: 7, TotalPages: 5,
		Source: types.SourceRealtime,
	})

	out := buf.String()
	assert.Contains(t, out, "RANKED JOBS")
	assert.Contains(t, out, "Source: realtime")
	assert.Contains(t, out, "Page 1 of 5, 30 jobs total")
	assert.Contains(t, out, "#1  90  Data Scientist")
	assert.Contains(t, out, "exp 88  ind 80  skills 91  other 75")
	assert.Contains(t, out, "#5  86")
	assert.NotContains(t, out, "#6")
	assert.Contains(t, out, "... and 2 more on this page")
}

func TestPrintResults_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResults(nil)
	assert.Empty(t, buf.String())
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.Analysis{
		PlatformDistribution: map[string]int{"lever": 3, "greenhouse": 5},
		PlatformErrors:       map[string]string{"seek": "context deadline exceeded"},
	})

	out := buf.String()
	assert.Contains(t, out, "SEARCH ANALYSIS")
	assert.Less(t, strings.Index(out, "greenhouse"), strings.Index(out, "lever"))
	assert.Contains(t, out, "⚠ seek: context deadline exceeded")
}

func TestPrintAnalysis_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintAnalysis(nil)
	p.PrintAnalysis(&types.Analysis{})
	assert.Empty(t, buf.String())
}

func TestPrintBox_ClipsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("T", strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes including the ellipsis.
func clip(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return logger.TruncateForLog(s, n-3)
}

// PrintProgress writes one line per pipeline stage. It matches
// pipeline.ProgressCallback.
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) PrintProgress(e pipeline.ProgressEvent) {
	line := fmt.Sprintf("▸ %-10s %s", e.Stage, e.Message)
	if e.Jobs > 0 {
		line += fmt.Sprintf(" (%d jobs)", e.Jobs)
	}
	fmt.Fprintln(p.out, line)
}

// PrintResults outputs the top jobs of a page with their scores.
func (p *Printer) PrintResults(resp *types.SearchResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s  Hot: %t\n", resp.Source, resp.IsHotJob))
	sb.WriteString(fmt.Sprintf("Page %d of %d, %d jobs total\n", resp.Page, resp.TotalPages, resp.Total))

	count := min(len(resp.Jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		j := resp.Jobs[i]
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("#%d  %d  %s\n", i+1, j.MatchScore, j.Title))
		sb.WriteString(fmt.Sprintf("    %s, %s [%s]\n", j.Company, j.Location, j.Platform))
		if s := j.SubScores; s != nil {
			sb.WriteString(fmt.Sprintf("    exp %d  ind %d  skills %d  other %d\n",
				s.Experience, s.Industry, s.Skills, s.Other))
		}
	}
	if len(resp.Jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more on this page\n", len(resp.Jobs)-maxItemsToShow))
	}

	p.printBox("RANKED JOBS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnalysis outputs per-source counts and failures. Nothing is printed
// when the analysis is empty.
func (p *Printer) PrintAnalysis(a *types.Analysis) {
	if a == nil || (len(a.PlatformDistribution) == 0 && len(a.PlatformErrors) == 0 && len(a.ExpandedTitles) == 0) {
		return
	}

	var sb strings.Builder
	if len(a.ExpandedTitles) > 0 {
		sb.WriteString("Titles searched:\n")
		for _, t := range a.ExpandedTitles {
			sb.WriteString(fmt.Sprintf("  • %s\n", t))
		}
	}
	if len(a.PlatformDistribution) > 0 {
		sb.WriteString("Jobs per source:\n")
		for _, name := range sortedKeys(a.PlatformDistribution) {
			sb.WriteString(fmt.Sprintf("  • %-16s %d\n", name, a.PlatformDistribution[name]))
		}
	}
	if len(a.PlatformErrors) > 0 {
		sb.WriteString("Failed sources:\n")
		for _, name := range sortedKeys(a.PlatformErrors) {
			sb.WriteString(fmt.Sprintf("  ⚠ %s: %s\n", name, a.PlatformErrors[name]))
		}
	}

	p.printBox("SEARCH ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

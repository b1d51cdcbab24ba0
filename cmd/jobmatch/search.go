package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/observability"
	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	searchTitle    string
	searchCity     string
	searchPlatform string
	searchLimit    int
	searchPage     int
	searchProfile  string
	searchVerbose  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and print the result envelope",
	Long: `Run a single search through the same pipeline the server uses and print
the JSON response. Failures print the error envelope and exit non-zero.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchTitle, "title", "t", "", "Job title to search for (required)")
	searchCmd.Flags().StringVarP(&searchCity, "city", "c", "", "City to search in (required)")
	searchCmd.Flags().StringVarP(&searchPlatform, "platform", "p", "", "Restrict the search to one live source")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Page size (default 20)")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "Page number (default 1)")
	searchCmd.Flags().StringVar(&searchProfile, "profile", "", "Path to a candidate profile JSON file")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print progress and a results summary to stderr")

	_ = searchCmd.MarkFlagRequired("title")
	_ = searchCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	profile, err := loadProfile(searchProfile)
	if err != nil {
		return err
	}

	// One-shot runs gain nothing from the in-process cache.
	if cfg.Cache.Backend == config.CacheMemory {
		cfg.Cache.Backend = config.CacheNone
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt)
	defer stop()

	var printer *observability.Printer
	var onProgress pipeline.ProgressCallback
	if searchVerbose {
		printer = observability.NewPrinter(os.Stderr)
		onProgress = printer.PrintProgress
	}

	a, err := buildApp(ctx, cfg, log, onProgress)
	if err != nil {
		return err
	}
	defer a.Close()

	req := types.SearchRequest{
		JobTitle: searchTitle,
		City:     searchCity,
		Platform: searchPlatform,
		Limit:    searchLimit,
		Page:     searchPage,
	}
	resp, err := a.svc.Search(ctx, req, profile)
	if err != nil {
		log.Debug("search failed", zap.Error(err))
		_ = printJSON(pipeline.ErrorEnvelope("failed to search jobs", err))
		return err
	}
	if printer != nil {
		printer.PrintAnalysis(resp.Analysis)
		printer.PrintResults(resp)
	}
	return printJSON(resp)
}

func loadProfile(path string) (*types.Profile, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	var p types.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	return &p, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

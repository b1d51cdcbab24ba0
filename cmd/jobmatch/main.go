// Package main provides the entry point for the job matching service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	debugLogs bool
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "jobmatch",
	Short: "Job search aggregation and AI match scoring",
	Long: "jobmatch searches a pre-scored job store and live job sources for a title and city, " +
		"scores every job against a candidate profile with an LLM and returns a ranked page.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./jobmatch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugLogs, "debug", "d", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "JSON log format")
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logger.New(jsonLogs, debugLogs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

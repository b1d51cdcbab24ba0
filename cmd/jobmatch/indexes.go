package main

import (
	"fmt"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the job store indexes",
	Long:  `Create the title, location and score indexes the hot-job queries rely on. Safe to run repeatedly.`,
	RunE:  runIndexes,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Store.Driver == config.StoreNone {
		return fmt.Errorf("no job store configured (store.driver is %q)", cfg.Store.Driver)
	}

	ctx := contextOrBackground(cmd)
	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open job store: %w", err)
	}
	defer closeStore()

	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	log.Info("indexes ready", zap.String("store", cfg.Store.Driver))
	return nil
}

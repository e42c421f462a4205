package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sift/internal/errors"
	"sift/internal/incremental"
	"sift/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the incremental cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show incremental cache statistics",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached per-file results",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openStore() (*storage.DB, *incremental.Store, error) {
	repoRoot, _, logger := mustLoadEnvironment()

	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		return nil, nil, errors.NewSiftError(errors.StoreUnavailable, "Failed to open state database", err)
	}
	return db, incremental.NewStore(db, logger), nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	snap := store.Load()
	fmt.Printf("cached files:    %d\n", snap.Len())
	fmt.Printf("total reuses:    %d\n", snap.Stats.TotalReuses)
	fmt.Printf("total processed: %d\n", snap.Stats.TotalProcessed)
	if snap.Stats.LastDurationMs > 0 {
		fmt.Printf("last run:        %.1fms\n", snap.Stats.LastDurationMs)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	if err := store.Clear(); err != nil {
		return errors.NewSiftError(errors.InternalError, "Failed to clear cache", err)
	}
	fmt.Println("Incremental cache cleared.")
	return nil
}

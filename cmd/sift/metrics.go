package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sift/internal/errors"
	"sift/internal/storage"
)

var (
	metricsLimit int
	metricsJSON  bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recorded run metrics",
	Long:  "Prints the persisted run history, newest first.",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().IntVarP(&metricsLimit, "limit", "n", 10, "Maximum number of runs to show")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Emit run history as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	repoRoot, _, logger := mustLoadEnvironment()

	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		return errors.NewSiftError(errors.StoreUnavailable, "Failed to open state database", err)
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	records, err := db.GetRunHistory(metricsLimit)
	if err != nil {
		return errors.NewSiftError(errors.InternalError, "Failed to read run history", err)
	}

	if metricsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded yet. Run 'sift analyze' first.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  files=%d hits=%d misses=%d occurrences=%d parse=%.1fms analysis=%.1fms\n",
			rec.RecordedAt.Format("2006-01-02 15:04:05"),
			rec.TotalFiles, rec.CacheHits, rec.CacheMisses,
			rec.OccurrenceCount, rec.ParseMs, rec.AnalysisMs)
		for _, s := range rec.PerTechnique {
			scope := "per-file"
			if s.Global {
				scope = "global"
			}
			fmt.Printf("    %-20s %-8s %8.1fms  %d occurrences\n",
				s.Name, scope, s.DurationMs, s.Occurrences)
		}
	}

	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sift/internal/errors"
	"sift/internal/export"
)

var snapshotJSON bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Work with exported result snapshots",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a summary of an exported snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

func init() {
	snapshotShowCmd.Flags().BoolVar(&snapshotJSON, "json", false, "Emit the full snapshot as JSON")
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	snap, err := export.Read(args[0])
	if err != nil {
		return errors.NewSiftError(errors.ExportFailed, "Failed to read snapshot", err)
	}

	if snapshotJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Printf("generated:   %s\n", snap.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("repo:        %s\n", snap.RepoRoot)
	fmt.Printf("occurrences: %d\n", len(snap.Result.Occurrences))

	bySeverity := map[string]int{}
	for _, occ := range snap.Result.Occurrences {
		bySeverity[string(occ.Severity)]++
	}
	for _, sev := range []string{"error", "warning", "info"} {
		if n := bySeverity[sev]; n > 0 {
			fmt.Printf("  %-8s %d\n", sev, n)
		}
	}

	if m := snap.Result.Metrics; m != nil {
		fmt.Printf("metrics:     %d files, %d hits, %d misses\n",
			m.TotalFiles, m.CacheHits, m.CacheMisses)
	}
	return nil
}

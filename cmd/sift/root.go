package main

import (
	"os"

	"github.com/spf13/cobra"

	"sift/internal/version"
)

var (
	// repoFlag is the CLI --repo flag value
	repoFlag string
	// logLevelFlag overrides the configured log level
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "sift - incremental static analysis runner",
	Long: `sift runs pluggable analysis techniques over a repository and reports
occurrences (findings anchored to files and lines). Results are cached
incrementally per content fingerprint, so unchanged files are never
re-analyzed.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("sift version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (overrides config)")
}

// resolveRepoRoot determines the repository root from the --repo flag or
// the working directory.
func resolveRepoRoot() (string, error) {
	if repoFlag != "" {
		return repoFlag, nil
	}
	return os.Getwd()
}
